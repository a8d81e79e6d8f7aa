package tui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/amanthanvi/markbook/internal/app"
	"github.com/amanthanvi/markbook/internal/storage"
	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type Screen string

const (
	ScreenStudents Screen = "students"
	ScreenDetail   Screen = "detail"
	ScreenConfirm  Screen = "confirm"
)

const allClassesLabel = "Alle Klassen"

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	headingStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	labelStyle   = lipgloss.NewStyle().Faint(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

type Client interface {
	ListStudents(ctx context.Context, filter storage.StudentFilter) ([]storage.Student, error)
	Classes(ctx context.Context) ([]string, error)
	Show(ctx context.Context, id int64) (*app.StudentRecord, error)
	Delete(ctx context.Context, id int64) error
	Export(ctx context.Context, id int64) (string, error)
}

type Options struct {
	Client Client
	IsTTY  func() bool
	Input  io.Reader
	Output io.Writer
}

type Model struct {
	client Client

	screen   Screen
	previous Screen
	err      string
	status   string

	search     textinput.Model
	searching  bool
	classes    []string
	classIndex int

	studentsList list.Model
	record       *app.StudentRecord

	pendingDelete *storage.Student
}

// loadedMsg carries the filter it was loaded for, so a result that arrives
// after the search or class changed again is dropped.
type loadedMsg struct {
	filter   storage.StudentFilter
	students []storage.Student
	classes  []string
	err      error
}

type detailMsg struct {
	record *app.StudentRecord
	err    error
}

type exportedMsg struct {
	path string
	err  error
}

type deletedMsg struct {
	id  int64
	err error
}

func Run(opts Options) error {
	if opts.IsTTY != nil && !opts.IsTTY() {
		return fmt.Errorf("tui: requires a tty")
	}
	programOpts := []tea.ProgramOption{tea.WithAltScreen()}
	if opts.Input != nil {
		programOpts = append(programOpts, tea.WithInput(opts.Input))
	}
	if opts.Output != nil {
		programOpts = append(programOpts, tea.WithOutput(opts.Output))
	}
	_, err := tea.NewProgram(NewModel(opts), programOpts...).Run()
	return err
}

func NewModel(opts Options) Model {
	search := textinput.New()
	search.Placeholder = "Vorname oder Nachname"
	search.Prompt = "Suche: "
	search.Cursor.SetMode(cursor.CursorStatic)

	studentsList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	studentsList.Title = "Schüler"
	studentsList.SetShowStatusBar(false)
	studentsList.SetFilteringEnabled(false)
	studentsList.SetShowHelp(false)
	studentsList.SetSize(80, 20)

	return Model{
		client:       opts.Client,
		screen:       ScreenStudents,
		search:       search,
		studentsList: studentsList,
	}
}

func (m Model) Init() tea.Cmd {
	if m.client == nil {
		return nil
	}
	return m.loadCmd()
}

// ClassFilter is the active class, empty for all classes.
func (m Model) ClassFilter() string {
	if m.classIndex <= 0 || m.classIndex > len(m.classes) {
		return ""
	}
	return m.classes[m.classIndex-1]
}

func (m Model) classLabel() string {
	if class := m.ClassFilter(); class != "" {
		return class
	}
	return allClassesLabel
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		switch typed.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "q":
			if !m.searching {
				return m, tea.Quit
			}
		}
	case tea.WindowSizeMsg:
		height := typed.Height - 6
		if height < 1 {
			height = 1
		}
		m.studentsList.SetSize(typed.Width, height)
		return m, nil
	case loadedMsg:
		if typed.filter != m.filter() {
			return m, nil
		}
		if typed.err != nil {
			m.err = typed.err.Error()
			return m, nil
		}
		m.err = ""
		m.setClasses(typed.classes)
		m.populateStudents(typed.students)
		return m, nil
	case detailMsg:
		if typed.err != nil {
			m.err = typed.err.Error()
			return m, nil
		}
		m.err = ""
		m.record = typed.record
		m.previous = ScreenStudents
		m.screen = ScreenDetail
		return m, nil
	case exportedMsg:
		if typed.err != nil {
			m.err = typed.err.Error()
			m.status = ""
			return m, nil
		}
		m.err = ""
		m.status = "Exportiert: " + typed.path
		return m, nil
	case deletedMsg:
		m.pendingDelete = nil
		m.screen = ScreenStudents
		m.record = nil
		if typed.err != nil {
			m.err = typed.err.Error()
			return m, nil
		}
		m.err = ""
		m.status = fmt.Sprintf("Schüler %d gelöscht", typed.id)
		return m, m.loadCmd()
	}

	switch m.screen {
	case ScreenDetail:
		return m.updateDetail(msg)
	case ScreenConfirm:
		return m.updateConfirm(msg)
	default:
		return m.updateStudents(msg)
	}
}

func (m Model) updateStudents(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		if m.searching {
			switch key.String() {
			case "enter", "esc":
				m.searching = false
				m.search.Blur()
				return m, nil
			}
			before := m.search.Value()
			var cmd tea.Cmd
			m.search, cmd = m.search.Update(msg)
			if m.search.Value() != before {
				return m, tea.Batch(cmd, m.loadStudentsCmd())
			}
			return m, cmd
		}

		switch key.String() {
		case "/":
			m.searching = true
			cmd := m.search.Focus()
			return m, cmd
		case "c":
			m.classIndex = (m.classIndex + 1) % (len(m.classes) + 1)
			return m, m.loadStudentsCmd()
		case "r":
			return m, m.loadCmd()
		case "enter":
			if student, ok := m.selectedStudent(); ok {
				return m, m.showCmd(student.ID)
			}
			return m, nil
		case "e":
			if student, ok := m.selectedStudent(); ok {
				return m, m.exportCmd(student.ID)
			}
			return m, nil
		case "d":
			if student, ok := m.selectedStudent(); ok {
				m.askDelete(student)
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.studentsList, cmd = m.studentsList.Update(msg)
	return m, cmd
}

func (m Model) updateDetail(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok || m.record == nil {
		return m, nil
	}
	switch key.String() {
	case "esc", "backspace":
		m.screen = ScreenStudents
		m.record = nil
		return m, nil
	case "e":
		return m, m.exportCmd(m.record.Student.ID)
	case "d":
		m.askDelete(m.record.Student)
		return m, nil
	}
	return m, nil
}

func (m Model) updateConfirm(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok || m.pendingDelete == nil {
		return m, nil
	}
	switch key.String() {
	case "y":
		return m, m.deleteCmd(m.pendingDelete.ID)
	case "n", "esc":
		m.pendingDelete = nil
		m.screen = m.previous
		return m, nil
	}
	return m, nil
}

func (m *Model) askDelete(student storage.Student) {
	m.previous = m.screen
	m.screen = ScreenConfirm
	m.pendingDelete = &student
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Markbook"))
	b.WriteString("  [/] Suche  [c] Klasse  [enter] Details  [e] Export  [d] Löschen  [q] Beenden\n")
	if m.err != "" {
		b.WriteString(errorStyle.Render("Fehler: "+m.err) + "\n")
	} else if m.status != "" {
		b.WriteString(statusStyle.Render(m.status) + "\n")
	}
	b.WriteString("\n")

	switch m.screen {
	case ScreenDetail:
		b.WriteString(m.renderDetail())
	case ScreenConfirm:
		b.WriteString(m.renderConfirm())
	default:
		b.WriteString(m.search.View() + "  " + labelStyle.Render("Klasse:") + " " + m.classLabel() + "\n\n")
		if len(m.studentsList.Items()) == 0 {
			b.WriteString("Keine Schüler gefunden.\nNeue Schüler mit `markbook student add` anlegen.")
		} else {
			b.WriteString(m.studentsList.View())
		}
	}
	return b.String()
}

func (m Model) renderConfirm() string {
	if m.pendingDelete == nil {
		return ""
	}
	s := m.pendingDelete
	return fmt.Sprintf(
		"Schüler %s %s (Klasse %s) und alle Arbeitstitel löschen?\n\n[y] Löschen  [n]/[esc] Abbrechen",
		s.FirstName, s.LastName, s.Class,
	)
}

func (m Model) renderDetail() string {
	if m.record == nil {
		return "Keine Details verfügbar"
	}
	var details storage.Assessment
	if m.record.Details != nil {
		details = *m.record.Details
	}
	s := m.record.Student

	var b strings.Builder
	b.WriteString(headingStyle.Render(fmt.Sprintf("%s %s, Klasse: %s", s.FirstName, s.LastName, s.Class)) + "\n\n")
	writeField(&b, "Soziale Kompetenz", details.SocialCompetence)
	writeField(&b, "Aktive Mitarbeit", details.ActiveParticipation)
	writeField(&b, "Sauberkeit", details.Cleanliness)
	writeField(&b, "Material", details.Material)
	writeField(&b, "Pünktlichkeit", details.Punctuality)
	writeField(&b, "Kommentar", details.Comment)

	b.WriteString("\n" + headingStyle.Render("Arbeitstitel") + "\n")
	if len(m.record.WorkTitles) == 0 {
		b.WriteString("Keine Arbeitstitel.\n")
	}
	for _, work := range m.record.WorkTitles {
		b.WriteString(fmt.Sprintf("\n#%d %s (Note: %s)\n", work.ID, work.Title, work.Note))
		writeField(&b, "Konzept", work.SocialCompetence)
		writeField(&b, "Ausführung", work.ActiveParticipation)
		writeField(&b, "Technik", work.Cleanliness)
		writeField(&b, "Selbstbeurteilung", work.Material)
		writeField(&b, "Hat mir gefallen/Nicht gefallen", work.Punctuality)
		writeField(&b, "Kommentar", work.Comment)
	}
	b.WriteString("\n[esc] Zurück")
	return b.String()
}

func writeField(b *strings.Builder, label, value string) {
	b.WriteString(labelStyle.Render(label+":") + " " + value + "\n")
}

func (m Model) selectedStudent() (storage.Student, bool) {
	item, ok := m.studentsList.SelectedItem().(studentItem)
	if !ok {
		return storage.Student{}, false
	}
	return item.student, true
}

func (m *Model) setClasses(classes []string) {
	current := m.ClassFilter()
	m.classes = append([]string(nil), classes...)
	m.classIndex = 0
	for i, class := range m.classes {
		if class == current {
			m.classIndex = i + 1
			break
		}
	}
}

func (m *Model) populateStudents(students []storage.Student) {
	items := make([]list.Item, 0, len(students))
	for _, student := range students {
		items = append(items, studentItem{student: student})
	}
	m.studentsList.SetItems(items)
}

func (m Model) filter() storage.StudentFilter {
	return storage.StudentFilter{
		Keyword: strings.TrimSpace(m.search.Value()),
		Class:   m.ClassFilter(),
	}
}

func (m Model) loadCmd() tea.Cmd {
	client := m.client
	filter := m.filter()
	return func() tea.Msg {
		ctx := context.Background()
		classes, err := client.Classes(ctx)
		if err != nil {
			return loadedMsg{filter: filter, err: err}
		}
		students, err := client.ListStudents(ctx, filter)
		if err != nil {
			return loadedMsg{filter: filter, err: err}
		}
		return loadedMsg{filter: filter, students: students, classes: classes}
	}
}

func (m Model) loadStudentsCmd() tea.Cmd {
	client := m.client
	filter := m.filter()
	classes := append([]string(nil), m.classes...)
	return func() tea.Msg {
		students, err := client.ListStudents(context.Background(), filter)
		return loadedMsg{filter: filter, students: students, classes: classes, err: err}
	}
}

func (m Model) showCmd(id int64) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		record, err := client.Show(context.Background(), id)
		return detailMsg{record: record, err: err}
	}
}

func (m Model) exportCmd(id int64) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		path, err := client.Export(context.Background(), id)
		return exportedMsg{path: path, err: err}
	}
}

func (m Model) deleteCmd(id int64) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		return deletedMsg{id: id, err: client.Delete(context.Background(), id)}
	}
}

type studentItem struct {
	student storage.Student
}

func (i studentItem) Title() string {
	return i.student.LastName + ", " + i.student.FirstName
}

func (i studentItem) Description() string {
	class := i.student.Class
	if class == "" {
		class = "-"
	}
	return fmt.Sprintf("Klasse %s  #%d", class, i.student.ID)
}

func (i studentItem) FilterValue() string {
	return i.student.FirstName + " " + i.student.LastName
}

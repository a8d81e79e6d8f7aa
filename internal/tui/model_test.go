package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/amanthanvi/markbook/internal/app"
	"github.com/amanthanvi/markbook/internal/storage"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"
)

func TestModelInitLoadsStudentsAndClasses(t *testing.T) {
	t.Parallel()

	client := newFakeClient()
	model := NewModel(Options{Client: client})

	state := apply(t, model, model.Init())
	require.Equal(t, ScreenStudents, state.screen)
	require.Len(t, state.studentsList.Items(), 3)
	require.Equal(t, []string{"5A", "6B"}, state.classes)

	view := state.View()
	require.Contains(t, view, "Alle Klassen")
	require.Contains(t, view, "Berg, Anna")
}

func TestModelClassKeyCyclesThroughClasses(t *testing.T) {
	t.Parallel()

	client := newFakeClient()
	model := NewModel(Options{Client: client})
	state := apply(t, model, model.Init())

	state = pressAndApply(t, state, runeKey('c'))
	require.Equal(t, "5A", state.ClassFilter())
	require.Len(t, state.studentsList.Items(), 2)
	require.Equal(t, "5A", client.lastFilter.Class)

	state = pressAndApply(t, state, runeKey('c'))
	require.Equal(t, "6B", state.ClassFilter())
	require.Len(t, state.studentsList.Items(), 1)

	state = pressAndApply(t, state, runeKey('c'))
	require.Equal(t, "", state.ClassFilter())
	require.Contains(t, state.View(), "Alle Klassen")
	require.Len(t, state.studentsList.Items(), 3)
}

func TestModelSearchCombinesWithClassFilter(t *testing.T) {
	t.Parallel()

	client := newFakeClient()
	model := NewModel(Options{Client: client})
	state := apply(t, model, model.Init())
	state = pressAndApply(t, state, runeKey('c'))

	next, _ := state.Update(runeKey('/'))
	state = next.(Model)
	require.True(t, state.searching)

	state = pressAndApply(t, state, runeKey('p'))
	require.Equal(t, storage.StudentFilter{Keyword: "p", Class: "5A"}, client.lastFilter)
	require.Len(t, state.studentsList.Items(), 1)

	next, _ = state.Update(tea.KeyMsg{Type: tea.KeyEsc})
	state = next.(Model)
	require.False(t, state.searching)
}

func TestModelDropsResultsForOutdatedSearch(t *testing.T) {
	t.Parallel()

	client := newFakeClient()
	model := NewModel(Options{Client: client})
	state := apply(t, model, model.Init())

	next, _ := state.Update(runeKey('/'))
	state = next.(Model)

	// Typing "a" then "an" starts two loads; resolve the newer one first.
	next, first := state.Update(runeKey('a'))
	state = next.(Model)
	next, second := state.Update(runeKey('n'))
	state = next.(Model)

	state = applyLoaded(t, state, second)
	require.Len(t, state.studentsList.Items(), 1)

	state = applyLoaded(t, state, first)
	require.Len(t, state.studentsList.Items(), 1)
	require.Equal(t, "an", state.filter().Keyword)
}

func TestModelQuitKeyIsTypedWhileSearching(t *testing.T) {
	t.Parallel()

	model := NewModel(Options{Client: newFakeClient()})
	model.searching = true
	model.search.Focus()

	next, _ := model.Update(runeKey('q'))
	require.Equal(t, "q", next.(Model).search.Value())
}

func TestModelEnterShowsDetail(t *testing.T) {
	t.Parallel()

	client := newFakeClient()
	model := NewModel(Options{Client: client})
	state := apply(t, model, model.Init())

	state = pressAndApply(t, state, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, ScreenDetail, state.screen)
	view := state.View()
	require.Contains(t, view, "Anna Berg, Klasse: 5A")
	require.Contains(t, view, "hilfsbereit")
	require.Contains(t, view, "Vase")

	next, _ := state.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.Equal(t, ScreenStudents, next.(Model).screen)
}

func TestModelExportReportsPathOrError(t *testing.T) {
	t.Parallel()

	client := newFakeClient()
	model := NewModel(Options{Client: client})
	state := apply(t, model, model.Init())

	state = pressAndApply(t, state, runeKey('e'))
	require.Contains(t, state.View(), "Exportiert: Anna_Berg_5A.pdf")
	require.Equal(t, []int64{1}, client.exported)

	client.exportErr = errors.New("pdf export is not available in this build")
	state = pressAndApply(t, state, runeKey('e'))
	require.Contains(t, state.View(), "pdf export is not available")
}

func TestModelDeleteRequiresConfirmation(t *testing.T) {
	t.Parallel()

	client := newFakeClient()
	model := NewModel(Options{Client: client})
	state := apply(t, model, model.Init())

	next, cmd := state.Update(runeKey('d'))
	require.Nil(t, cmd)
	state = next.(Model)
	require.Equal(t, ScreenConfirm, state.screen)
	require.Contains(t, state.View(), "Anna Berg")

	next, _ = state.Update(runeKey('n'))
	state = next.(Model)
	require.Equal(t, ScreenStudents, state.screen)
	require.Empty(t, client.deleted)

	next, _ = state.Update(runeKey('d'))
	state = next.(Model)
	next, cmd = state.Update(runeKey('y'))
	require.NotNil(t, cmd)
	msg := cmd()
	require.IsType(t, deletedMsg{}, msg)

	next, reload := next.(Model).Update(msg)
	require.NotNil(t, reload)
	state = apply(t, next.(Model), reload)
	require.Equal(t, []int64{1}, client.deleted)
	require.Len(t, state.studentsList.Items(), 2)
	require.Contains(t, state.View(), "gelöscht")
}

func TestModelLoadErrorIsShown(t *testing.T) {
	t.Parallel()

	client := newFakeClient()
	client.listErr = errors.New("database is locked")
	model := NewModel(Options{Client: client})

	state := apply(t, model, model.Init())
	require.Contains(t, state.View(), "database is locked")
}

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

// apply runs cmd and feeds its message back into the model.
func apply(t *testing.T, model Model, cmd tea.Cmd) Model {
	t.Helper()
	require.NotNil(t, cmd)
	next, _ := model.Update(cmd())
	return next.(Model)
}

// pressAndApply sends key, then resolves the command it produced (if any).
func pressAndApply(t *testing.T, model Model, key tea.KeyMsg) Model {
	t.Helper()
	next, cmd := model.Update(key)
	state := next.(Model)
	if cmd == nil {
		return state
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		for _, inner := range batch {
			if inner == nil {
				continue
			}
			if loaded, ok := inner().(loadedMsg); ok {
				updated, _ := state.Update(loaded)
				state = updated.(Model)
			}
		}
		return state
	}
	updated, _ := state.Update(msg)
	return updated.(Model)
}

// applyLoaded resolves the loadedMsg inside a batched command and feeds it to
// the model.
func applyLoaded(t *testing.T, model Model, cmd tea.Cmd) Model {
	t.Helper()
	require.NotNil(t, cmd)
	batch, ok := cmd().(tea.BatchMsg)
	require.True(t, ok)
	for _, inner := range batch {
		if inner == nil {
			continue
		}
		if loaded, ok := inner().(loadedMsg); ok {
			next, _ := model.Update(loaded)
			return next.(Model)
		}
	}
	t.Fatal("no loadedMsg in batch")
	return model
}

type fakeClient struct {
	students   []storage.Student
	details    map[int64]*storage.Assessment
	works      map[int64][]storage.WorkTitle
	lastFilter storage.StudentFilter
	listErr    error
	exportErr  error
	exported   []int64
	deleted    []int64
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		students: []storage.Student{
			{ID: 1, FirstName: "Anna", LastName: "Berg", Class: "5A"},
			{ID: 2, FirstName: "Paul", LastName: "Weber", Class: "5A"},
			{ID: 3, FirstName: "Mia", LastName: "Sommer", Class: "6B"},
		},
		details: map[int64]*storage.Assessment{
			1: {SocialCompetence: "hilfsbereit"},
		},
		works: map[int64][]storage.WorkTitle{
			1: {{ID: 10, StudentID: 1, Title: "Vase", Note: "2"}},
		},
	}
}

func (f *fakeClient) ListStudents(_ context.Context, filter storage.StudentFilter) ([]storage.Student, error) {
	f.lastFilter = filter
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := []storage.Student{}
	for _, s := range f.students {
		if filter.Class != "" && s.Class != filter.Class {
			continue
		}
		keyword := strings.ToLower(filter.Keyword)
		if keyword != "" && !strings.Contains(strings.ToLower(s.FirstName), keyword) && !strings.Contains(strings.ToLower(s.LastName), keyword) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeClient) Classes(context.Context) ([]string, error) {
	seen := map[string]bool{}
	out := []string{}
	for _, s := range f.students {
		if s.Class != "" && !seen[s.Class] {
			seen[s.Class] = true
			out = append(out, s.Class)
		}
	}
	return out, nil
}

func (f *fakeClient) Show(_ context.Context, id int64) (*app.StudentRecord, error) {
	for _, s := range f.students {
		if s.ID == id {
			return &app.StudentRecord{Student: s, Details: f.details[id], WorkTitles: f.works[id]}, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (f *fakeClient) Delete(_ context.Context, id int64) error {
	f.deleted = append(f.deleted, id)
	kept := f.students[:0]
	for _, s := range f.students {
		if s.ID != id {
			kept = append(kept, s)
		}
	}
	f.students = kept
	return nil
}

func (f *fakeClient) Export(_ context.Context, id int64) (string, error) {
	if f.exportErr != nil {
		return "", f.exportErr
	}
	f.exported = append(f.exported, id)
	for _, s := range f.students {
		if s.ID == id {
			return s.FirstName + "_" + s.LastName + "_" + s.Class + ".pdf", nil
		}
	}
	return "", storage.ErrNotFound
}

package collaboration

import (
	"fmt"
	"testing"
	"time"

	"pdf-coview/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_CreateAndGet(t *testing.T) {
	s := NewStore()
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return created }

	id, err := s.Create("conn-a", "/uploads/doc.pdf")
	require.NoError(t, err)
	assert.Len(t, id, 32, "128-bit ids are 32 hex characters")

	session, ok := s.Get(id)
	require.True(t, ok)
	assert.Equal(t, "conn-a", session.ControllerID)
	assert.Equal(t, "/uploads/doc.pdf", session.DocumentURL)
	assert.Equal(t, 1, session.CurrentPage)
	assert.Empty(t, session.Viewers)
	assert.Equal(t, created, session.CreatedAt)
}

func TestStore_GetReturnsCopy(t *testing.T) {
	s := NewStore()
	id, err := s.Create("conn-a", "/uploads/doc.pdf")
	require.NoError(t, err)

	session, _ := s.Get(id)
	session.CurrentPage = 99
	session.Viewers["intruder"] = struct{}{}

	fresh, _ := s.Get(id)
	assert.Equal(t, 1, fresh.CurrentPage)
	assert.False(t, fresh.HasViewer("intruder"))
}

func TestStore_CreateRetriesOnCollision(t *testing.T) {
	s := NewStore()
	ids := []string{"same", "same", "other"}
	s.newID = func() (string, error) {
		id := ids[0]
		ids = ids[1:]
		return id, nil
	}

	first, err := s.Create("a", "/uploads/1.pdf")
	require.NoError(t, err)
	second, err := s.Create("b", "/uploads/2.pdf")
	require.NoError(t, err)

	assert.Equal(t, "same", first)
	assert.Equal(t, "other", second)
	assert.Equal(t, 2, s.Len())
}

func TestStore_AddViewer(t *testing.T) {
	s := NewStore()
	id, _ := s.Create("controller", "/uploads/doc.pdf")

	require.NoError(t, s.AddViewer(id, "viewer"))
	require.NoError(t, s.AddViewer(id, "viewer"))
	require.NoError(t, s.AddViewer(id, "controller"))

	session, _ := s.Get(id)
	assert.Equal(t, []string{"viewer"}, session.ViewerIDs())

	assert.ErrorIs(t, s.AddViewer("missing", "viewer"), ErrSessionNotFound)
}

func TestStore_SetPageAndRemoveViewer(t *testing.T) {
	s := NewStore()
	id, _ := s.Create("controller", "/uploads/doc.pdf")
	require.NoError(t, s.AddViewer(id, "viewer"))

	require.NoError(t, s.SetPage(id, 7))
	require.NoError(t, s.RemoveViewer(id, "viewer"))
	require.NoError(t, s.RemoveViewer(id, "never-joined"))

	session, _ := s.Get(id)
	assert.Equal(t, 7, session.CurrentPage)
	assert.Empty(t, session.Viewers)

	assert.ErrorIs(t, s.SetPage("missing", 2), ErrSessionNotFound)
	assert.ErrorIs(t, s.RemoveViewer("missing", "viewer"), ErrSessionNotFound)
}

func TestStore_DeleteIsIdempotent(t *testing.T) {
	s := NewStore()
	id, _ := s.Create("controller", "/uploads/doc.pdf")

	assert.True(t, s.Delete(id))
	assert.False(t, s.Delete(id))
	assert.False(t, s.Delete("never-existed"))

	_, ok := s.Get(id)
	assert.False(t, ok)
}

func TestStore_ForEachVisitsEachSessionOnceWhileDeleting(t *testing.T) {
	s := NewStore()
	for i := 0; i < 50; i++ {
		_, err := s.Create("controller", fmt.Sprintf("/uploads/doc-%d.pdf", i))
		require.NoError(t, err)
	}

	seen := make(map[string]int)
	s.ForEach(func(session *models.Session) {
		seen[session.ID]++
		s.Delete(session.ID)
	})

	assert.Len(t, seen, 50)
	for id, n := range seen {
		assert.Equal(t, 1, n, "session %s visited %d times", id, n)
	}
	assert.Zero(t, s.Len())
}

func TestStore_DocumentURLHeldByOneSession(t *testing.T) {
	s := NewStore()

	id, err := s.Create("a", "/uploads/doc.pdf")
	require.NoError(t, err)

	_, err = s.Create("b", "/uploads/doc.pdf")
	assert.ErrorIs(t, err, ErrDocumentInUse)
	assert.Equal(t, 1, s.Len())

	require.True(t, s.Delete(id))
	_, err = s.Create("b", "/uploads/doc.pdf")
	assert.NoError(t, err)
}

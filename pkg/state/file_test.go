package state

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"
	"go.uber.org/zap"

	"github.com/futurice/s2f/pkg/salesforce"
)

func TestFileStoreRoundtrip(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "state.json")
	store := NewFileStore(path, zap.NewNop())

	saved := RunState{
		UpdatesURL: "chatter/feeds/company/feed-items?updatedSince=123",
		Opportunities: []salesforce.Opportunity{
			{ID: "006A", Name: "Big deal", StageName: "Prospecting"},
		},
	}
	c.Assert(store.Save(ctx, saved), qt.IsNil)

	loaded, existed, err := store.Load(ctx)
	c.Assert(err, qt.IsNil)
	c.Assert(existed, qt.IsTrue)
	c.Assert(loaded.UpdatesURL, qt.Equals, saved.UpdatesURL)
	c.Assert(loaded.Opportunities, qt.HasLen, 1)
	c.Assert(loaded.Opportunities[0].ID, qt.Equals, "006A")
}

func TestFileStoreMissingFileIsFirstRun(t *testing.T) {
	c := qt.New(t)

	store := NewFileStore(filepath.Join(t.TempDir(), "state.json"), zap.NewNop())
	st, existed, err := store.Load(context.Background())
	c.Assert(err, qt.IsNil)
	c.Assert(existed, qt.IsFalse)
	c.Assert(st.UpdatesURL, qt.Equals, "")
	c.Assert(st.Opportunities, qt.HasLen, 0)
}

func TestFileStoreCorruptFileIsFirstRun(t *testing.T) {
	c := qt.New(t)

	path := filepath.Join(t.TempDir(), "state.json")
	c.Assert(os.WriteFile(path, []byte("{not json"), 0600), qt.IsNil)

	store := NewFileStore(path, zap.NewNop())
	_, existed, err := store.Load(context.Background())
	c.Assert(err, qt.IsNil)
	c.Assert(existed, qt.IsFalse)
}

func TestKnown(t *testing.T) {
	c := qt.New(t)

	st := RunState{Opportunities: []salesforce.Opportunity{
		{ID: "1", Name: "a"},
		{ID: "2", Name: "b"},
	}}
	known := st.Known()
	c.Assert(known, qt.HasLen, 2)
	c.Assert(known["2"].Name, qt.Equals, "b")
}

package reconcile_test

import (
	"testing"

	"feedbox/internal/fetch"
	"feedbox/internal/reconcile"

	"github.com/stretchr/testify/require"
)

func item(link string) fetch.Item {
	if link == "" {
		return fetch.Item{}
	}
	return fetch.Item{Link: &link}
}

func links(items []fetch.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		if it.Link != nil {
			out[i] = *it.Link
		}
	}
	return out
}

func localSet(ls ...string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, l := range ls {
		set[l] = struct{}{}
	}
	return set
}

func TestNewItems_SetDifference(t *testing.T) {
	tests := []struct {
		name   string
		remote []fetch.Item
		local  map[string]struct{}
		want   []string
	}{
		{
			name:   "all new against empty local",
			remote: []fetch.Item{item("a"), item("b")},
			local:  localSet(),
			want:   []string{"a", "b"},
		},
		{
			name:   "nothing new when remote unchanged",
			remote: []fetch.Item{item("a"), item("b")},
			local:  localSet("a", "b"),
			want:   nil,
		},
		{
			name:   "only absent links selected, remote order kept",
			remote: []fetch.Item{item("c"), item("a"), item("d")},
			local:  localSet("a", "b"),
			want:   []string{"c", "d"},
		},
		{
			name:   "empty remote",
			remote: nil,
			local:  localSet("a"),
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := reconcile.NewItems(tt.remote, tt.local)
			if tt.want == nil {
				require.Empty(t, got)
				return
			}
			require.Equal(t, tt.want, links(got))
		})
	}
}

// local = {a, b}, remote = [a, c, nil] selects [c, nil] in that order.
func TestNewItems_MixedLinkAndNoLink(t *testing.T) {
	remote := []fetch.Item{item("a"), item("c"), item("")}
	got := reconcile.NewItems(remote, localSet("a", "b"))

	require.Len(t, got, 2)
	require.NotNil(t, got[0].Link)
	require.Equal(t, "c", *got[0].Link)
	require.Nil(t, got[1].Link)
}

func TestNewItems_NoLinkItemsAlwaysNew(t *testing.T) {
	remote := []fetch.Item{item(""), item("")}

	got := reconcile.NewItems(remote, localSet())
	require.Len(t, got, 2)

	// A second pass against the same local state selects them again.
	got = reconcile.NewItems(remote, localSet())
	require.Len(t, got, 2)
}

func TestNewItems_RemoteDuplicateCollapses(t *testing.T) {
	titled := func(link, title string) fetch.Item {
		return fetch.Item{Link: &link, Title: &title}
	}
	remote := []fetch.Item{titled("a", "first"), titled("a", "second")}

	got := reconcile.NewItems(remote, localSet())
	require.Len(t, got, 1)
	require.Equal(t, "first", *got[0].Title, "first occurrence wins")
}

func TestNewItems_DoesNotMutateLocal(t *testing.T) {
	local := localSet("a")
	reconcile.NewItems([]fetch.Item{item("a"), item("b")}, local)
	require.Equal(t, localSet("a"), local)
}

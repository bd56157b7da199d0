package tasktree

import (
	"testing"

	"github.com/josephgoksu/tasknest/models"
	"github.com/stretchr/testify/assert"
)

func TestFlatList_PreOrderWithoutChildren(t *testing.T) {
	flat := FlatList(sampleTree())

	ids := make([]string, len(flat))
	for i, tk := range flat {
		ids[i] = tk.ID
	}
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, ids)
	for _, tk := range flat {
		assert.Nil(t, tk.SubTasks, tk.ID)
	}
	assert.Empty(t, FlatList(nil))
}

func TestSearch(t *testing.T) {
	tree := []models.Task{
		task("1", "Buy Milk",
			task("2", "oat milk"),
			task("3", "bread"),
		),
		task("4", "MILKSHAKE"),
	}

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"case insensitive", "milk", []string{"1", "2", "4"}},
		{"trimmed query", "  bread \t", []string{"3"}},
		{"descendant matches without ancestor", "oat", []string{"2"}},
		{"no match", "eggs", []string{}},
		{"empty", "", []string{}},
		{"whitespace only", "   ", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Search(tree, tt.query)
			assert.Equal(t, tt.want, IDs(got))
			for _, tk := range got {
				assert.Nil(t, tk.SubTasks)
			}
		})
	}
}

func TestSearch_FoldsUnicode(t *testing.T) {
	tree := []models.Task{task("1", "Crème brûlée"), task("2", "ÉTÉ")}
	assert.Equal(t, []string{"1"}, IDs(Search(tree, "BRÛLÉE")))
	assert.Equal(t, []string{"2"}, IDs(Search(tree, "été")))
}

func TestSearch_FullCaseFolding(t *testing.T) {
	tree := []models.Task{task("1", "Straße fegen"), task("2", "Strasse")}
	assert.Equal(t, []string{"1", "2"}, IDs(Search(tree, "STRASSE")))
	assert.Equal(t, []string{"1", "2"}, IDs(Search(tree, "straße")))
}

package skill

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"SKILL.md": `---
name: pet-store-api
description: 'Manage pets: create and list'
---

# Pet Store API

Some text.
`,
		"references/resources/pets.md":            "# pets",
		"references/resources/store.md":           "# store",
		"references/operations/listPets.md":       "# listPets",
		"references/schemas/Pet/_index.md":        "# Pet schemas",
		"references/schemas/Pet/Pet.md":           "# Pet",
		"references/schemas/Pet/PetInput.md":      "# PetInput",
		"references/schemas/user/_index.md":       "# user schemas",
		"references/schemas/user/user_profile.md": "# user_profile",
		"references/authentication.md":            "# Authentication",
	})

	b, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, b.Dir)
	assert.Equal(t, "pet-store-api", b.Name)
	assert.Equal(t, "Manage pets: create and list", b.Description)
	assert.Equal(t, "Pet Store API", b.Title)
	assert.Equal(t, 2, b.Resources)
	assert.Equal(t, 1, b.Operations)
	assert.Equal(t, 2, b.SchemaGroups)
	assert.Equal(t, 3, b.Schemas)
	assert.True(t, b.HasAuthentication)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		message string
	}{
		{"no frontmatter", "# Title\n", "missing frontmatter"},
		{"no name", "---\ndescription: d\n---\n# T\n", "skill name is required"},
		{"no description", "---\nname: n\n---\n# T\n", "skill description is required"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFiles(t, dir, map[string]string{FileName: test.content})
			_, err := Load(dir)
			require.Error(t, err)
			assert.Contains(t, err.Error(), test.message)
		})
	}

	_, err := Load(t.TempDir())
	assert.Error(t, err)
}

func TestLoadMinimalBundle(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{FileName: "---\nname: x\ndescription: y\n---\n"})

	b, err := Load(dir)
	require.NoError(t, err)
	assert.Empty(t, b.Title)
	assert.Zero(t, b.Resources)
	assert.Zero(t, b.Schemas)
	assert.False(t, b.HasAuthentication)
}

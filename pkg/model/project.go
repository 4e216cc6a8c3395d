package model

// ProjectFile is one file of an exportable project. Path is relative to the
// project root and is normalized before it is written to an archive.
type ProjectFile struct {
	Path     string `json:"path"`
	Content  string `json:"content"`
	Language string `json:"language,omitempty"`
	Size     int64  `json:"size,omitempty"`
}

// ExportableProject is a generated project tree ready for export
type ExportableProject struct {
	Name         string            `json:"name"`
	Description  string            `json:"description"`
	Files        []*ProjectFile    `json:"files"`
	Dependencies []string          `json:"dependencies,omitempty"`
	Scripts      map[string]string `json:"scripts,omitempty"`
	Framework    string            `json:"framework,omitempty"`
	Language     string            `json:"language,omitempty"`
	Features     []string          `json:"features,omitempty"`
}

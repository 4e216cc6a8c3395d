package export

var (
	NormalizePathForTest = normalizePath
	SanitizeNameForTest  = sanitizeName
)

package model

// Languages offered by the language selector. Any other string is still a
// valid language tag; these are just the ones with known short names.
const (
	LanguageJavaScript = "javascript"
	LanguageTypeScript = "typescript"
	LanguageJSX        = "jsx"
	LanguageHTML       = "html"
	LanguageCSS        = "css"
	LanguagePython     = "python"
	LanguageJSON       = "json"
)

// DefaultLanguage is selected when the caller does not pick one.
const DefaultLanguage = LanguageJavaScript

var shortNames = map[string]string{
	LanguageJavaScript: "js",
	LanguageTypeScript: "ts",
	LanguageJSX:        "jsx",
	LanguageHTML:       "html",
	LanguageCSS:        "css",
	LanguagePython:     "py",
	LanguageJSON:       "json",
}

// Languages returns the known languages in selector order.
func Languages() []string {
	return []string{
		LanguageJavaScript,
		LanguageTypeScript,
		LanguageJSX,
		LanguageHTML,
		LanguageCSS,
		LanguagePython,
		LanguageJSON,
	}
}

// LanguageTag returns the label shown in the editor's language indicator.
// Unknown languages fall back to their first two characters.
func LanguageTag(language string) string {
	if tag, ok := shortNames[language]; ok {
		return tag
	}
	runes := []rune(language)
	if len(runes) > 2 {
		runes = runes[:2]
	}
	return string(runes)
}

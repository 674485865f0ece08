package language

import (
	"sort"
	"strings"
)

// Language represents a page language.
type Language struct {
	Code   string
	Name   string
	Native string
	// RTL marks right-to-left scripts; pages in these languages get dir="rtl".
	RTL bool
}

// Baseline is the language pages are authored in.
const Baseline = "en"

// Languages is a map of supported languages code -> Language.
var Languages = map[string]Language{
	"en":  {Code: "en", Name: "English", Native: "English"},
	"hi":  {Code: "hi", Name: "Hindi", Native: "हिन्दी"},
	"bn":  {Code: "bn", Name: "Bengali", Native: "বাংলা"},
	"te":  {Code: "te", Name: "Telugu", Native: "తెలుగు"},
	"mr":  {Code: "mr", Name: "Marathi", Native: "मराठी"},
	"ta":  {Code: "ta", Name: "Tamil", Native: "தமிழ்"},
	"ur":  {Code: "ur", Name: "Urdu", Native: "اردو", RTL: true},
	"gu":  {Code: "gu", Name: "Gujarati", Native: "ગુજરાતી"},
	"kn":  {Code: "kn", Name: "Kannada", Native: "ಕನ್ನಡ"},
	"ml":  {Code: "ml", Name: "Malayalam", Native: "മലയാളം"},
	"or":  {Code: "or", Name: "Odia", Native: "ଓଡ଼ିଆ"},
	"pa":  {Code: "pa", Name: "Punjabi", Native: "ਪੰਜਾਬੀ"},
	"as":  {Code: "as", Name: "Assamese", Native: "অসমীয়া"},
	"ne":  {Code: "ne", Name: "Nepali", Native: "नेपाली"},
	"sa":  {Code: "sa", Name: "Sanskrit", Native: "संस्कृतम्"},
	"sd":  {Code: "sd", Name: "Sindhi", Native: "سنڌي", RTL: true},
	"ks":  {Code: "ks", Name: "Kashmiri", Native: "کٲشُر", RTL: true},
	"kok": {Code: "kok", Name: "Konkani", Native: "कोंकणी"},
	"mai": {Code: "mai", Name: "Maithili", Native: "मैथिली"},
	"ar":  {Code: "ar", Name: "Arabic", Native: "العربية", RTL: true},
	"fr":  {Code: "fr", Name: "French", Native: "Français"},
	"es":  {Code: "es", Name: "Spanish", Native: "Español"},
	"de":  {Code: "de", Name: "German", Native: "Deutsch"},
	"pt":  {Code: "pt", Name: "Portuguese", Native: "Português"},
	"zh":  {Code: "zh", Name: "Chinese", Native: "中文"},
}

// GetLanguage looks up code case-insensitively.
func GetLanguage(code string) (Language, bool) {
	lang, ok := Languages[strings.ToLower(strings.TrimSpace(code))]
	return lang, ok
}

// IsRTL reports whether code is a known right-to-left language.
func IsRTL(code string) bool {
	lang, ok := GetLanguage(code)
	return ok && lang.RTL
}

// LanguageEntry represents a map entry for listing.
type LanguageEntry struct {
	ID string // The map key (CLI flag)
	Language
}

// GetSupportedLanguages returns a list of supported languages sorted by Name and then ID.
func GetSupportedLanguages() []LanguageEntry {
	entries := make([]LanguageEntry, 0, len(Languages))
	for k, v := range Languages {
		entries = append(entries, LanguageEntry{ID: k, Language: v})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Name != entries[j].Name {
			return entries[i].Name < entries[j].Name
		}
		return entries[i].ID < entries[j].ID
	})
	return entries
}

// Codes returns every supported code, sorted.
func Codes() []string {
	codes := make([]string, 0, len(Languages))
	for k := range Languages {
		codes = append(codes, k)
	}
	sort.Strings(codes)
	return codes
}

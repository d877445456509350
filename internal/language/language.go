package language

import (
	"fmt"
	"strings"

	xlang "golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Auto is the sentinel value that lets the engine detect the spoken language.
const Auto = "auto"

type entry struct {
	code2 string   // ISO 639-1 (2-letter)
	code3 string   // ISO 639-2 primary (3-letter)
	alt3  string   // ISO 639-2 alternate (e.g. "fre" vs "fra")
	words []string // Full word forms (e.g. "english")
}

var languages = []entry{
	{"en", "eng", "", []string{"english"}},
	{"es", "spa", "", []string{"spanish"}},
	{"fr", "fra", "fre", []string{"french"}},
	{"de", "deu", "ger", []string{"german"}},
	{"it", "ita", "", []string{"italian"}},
	{"pt", "por", "", []string{"portuguese"}},
	{"ja", "jpn", "", []string{"japanese"}},
	{"ko", "kor", "", []string{"korean"}},
	{"zh", "zho", "chi", []string{"chinese", "mandarin"}},
	{"ru", "rus", "", []string{"russian"}},
	{"ar", "ara", "", []string{"arabic"}},
	{"hi", "hin", "", []string{"hindi"}},
	{"nl", "nld", "dut", []string{"dutch"}},
	{"pl", "pol", "", []string{"polish"}},
	{"sv", "swe", "", []string{"swedish"}},
	{"da", "dan", "", []string{"danish"}},
	{"no", "nor", "", []string{"norwegian"}},
	{"fi", "fin", "", []string{"finnish"}},
	{"tr", "tur", "", []string{"turkish"}},
	{"uk", "ukr", "", []string{"ukrainian"}},
}

var index = func() map[string]string {
	m := make(map[string]string, len(languages)*4)
	for _, e := range languages {
		m[e.code2] = e.code2
		m[e.code3] = e.code2
		if e.alt3 != "" {
			m[e.alt3] = e.code2
		}
		for _, w := range e.words {
			m[w] = e.code2
		}
	}
	return m
}()

// engineCodes lists the language codes the speech engine accepts. Most are
// ISO 639-1; the engine keeps a few historical or 3-letter codes
// ("jw" for Javanese, "haw", "yue") that must reach it unchanged.
var engineCodes = map[string]bool{
	"af": true, "am": true, "ar": true, "as": true, "az": true, "ba": true, "be": true, "bg": true,
	"bn": true, "bo": true, "br": true, "bs": true, "ca": true, "cs": true, "cy": true, "da": true,
	"de": true, "el": true, "en": true, "es": true, "et": true, "eu": true, "fa": true, "fi": true,
	"fo": true, "fr": true, "gl": true, "gu": true, "ha": true, "haw": true, "he": true, "hi": true,
	"hr": true, "ht": true, "hu": true, "hy": true, "id": true, "is": true, "it": true, "ja": true,
	"jw": true, "ka": true, "kk": true, "km": true, "kn": true, "ko": true, "la": true, "lb": true,
	"ln": true, "lo": true, "lt": true, "lv": true, "mg": true, "mi": true, "mk": true, "ml": true,
	"mn": true, "mr": true, "ms": true, "mt": true, "my": true, "ne": true, "nl": true, "nn": true,
	"no": true, "oc": true, "pa": true, "pl": true, "ps": true, "pt": true, "ro": true, "ru": true,
	"sa": true, "sd": true, "si": true, "sk": true, "sl": true, "sn": true, "so": true, "sq": true,
	"sr": true, "su": true, "sv": true, "sw": true, "ta": true, "te": true, "tg": true, "th": true,
	"tk": true, "tl": true, "tr": true, "tt": true, "uk": true, "ur": true, "uz": true, "vi": true,
	"yi": true, "yo": true, "yue": true, "zh": true,
}

// Normalize converts a user-supplied language hint to the code handed to the
// engine. Empty input and "auto" return Auto. Codes the engine knows pass
// through unchanged; word forms, ISO 639-2 codes and BCP 47 tags are mapped
// to an engine code when one exists. Any other 2 or 3 letter code is passed
// through as given. Everything else returns an error naming the input.
func Normalize(value string) (string, error) {
	code := strings.ToLower(strings.TrimSpace(value))
	if code == "" || code == Auto {
		return Auto, nil
	}
	if engineCodes[code] {
		return code, nil
	}
	if mapped, ok := index[code]; ok {
		return mapped, nil
	}
	if tag, err := xlang.Parse(strings.ReplaceAll(code, "_", "-")); err == nil {
		if base, confidence := tag.Base(); confidence != xlang.No && engineCodes[base.String()] {
			return base.String(), nil
		}
	}
	if isLanguageCode(code) {
		return code, nil
	}
	return "", fmt.Errorf("unrecognized language %q", value)
}

func isLanguageCode(code string) bool {
	if len(code) < 2 || len(code) > 3 {
		return false
	}
	for _, r := range code {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}

// IsAuto reports whether code requests automatic detection.
func IsAuto(code string) bool {
	code = strings.ToLower(strings.TrimSpace(code))
	return code == "" || code == Auto
}

// DisplayName returns a human-readable English name for a language code.
// Returns "Unknown" for empty input, or the uppercased code when the name
// cannot be resolved.
func DisplayName(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return "Unknown"
	}
	if IsAuto(code) {
		return "Auto-detect"
	}
	tag, err := xlang.Parse(code)
	if err != nil {
		return strings.ToUpper(code)
	}
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return strings.ToUpper(code)
}

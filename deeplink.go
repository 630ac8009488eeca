package mdslides

import (
	"net/url"
	"strconv"
	"strings"
)

// Deep link fragment keys.
const (
	linkKeySlide     = "slide"
	linkKeyTheme     = "theme"
	linkKeyPresenter = "presenter"
)

// DeepLink is resumable view state carried in a URL fragment.
type DeepLink struct {
	// SlideIndex is zero-based; the fragment carries it 1-based.
	SlideIndex int
	ThemeID    string
	Presenter  bool
}

// ParseDeepLink decodes a URL fragment such as
// "#slide=2&theme=hacker&presenter=1". The leading '#' is optional.
//
// Decoding never fails: a missing or invalid slide gives index 0, an unknown
// theme gives the default theme, and presenter is set only by "1".
// Unknown keys are dropped.
func ParseDeepLink(fragment string) DeepLink {
	link := DeepLink{ThemeID: DefaultThemeID}
	if index, ok := LinkedSlide(fragment); ok {
		link.SlideIndex = index
	}
	if id, ok := LinkedTheme(fragment); ok {
		link.ThemeID = id
	}
	link.Presenter = fragmentValues(fragment).Get(linkKeyPresenter) == "1"
	return link
}

// LinkedSlide returns the zero-based slide the fragment names. It reports
// false when the slide key is absent or not a positive number.
func LinkedSlide(fragment string) (int, bool) {
	n, err := strconv.Atoi(fragmentValues(fragment).Get(linkKeySlide))
	if err != nil || n < 1 {
		return 0, false
	}
	return n - 1, true
}

// LinkedTheme returns the theme the fragment names. It reports false when
// the theme key is absent or unknown.
func LinkedTheme(fragment string) (string, bool) {
	id := fragmentValues(fragment).Get(linkKeyTheme)
	if !IsValidTheme(id) {
		return "", false
	}
	return id, true
}

func fragmentValues(fragment string) url.Values {
	// ParseQuery keeps every well-formed pair even when it reports an error.
	values, _ := url.ParseQuery(strings.TrimPrefix(fragment, "#"))
	return values
}

// Fragment encodes the link without the leading '#'.
// Keys are written in the order slide, theme, presenter.
func (l DeepLink) Fragment() string {
	index := l.SlideIndex
	if index < 0 {
		index = 0
	}
	themeID := l.ThemeID
	if !IsValidTheme(themeID) {
		themeID = DefaultThemeID
	}

	var b strings.Builder
	b.WriteString(linkKeySlide + "=" + strconv.Itoa(index+1))
	b.WriteString("&" + linkKeyTheme + "=" + url.QueryEscape(themeID))
	if l.Presenter {
		b.WriteString("&" + linkKeyPresenter + "=1")
	}
	return b.String()
}

// URL returns base with its fragment replaced by the encoded link.
func (l DeepLink) URL(base string) string {
	if i := strings.IndexByte(base, '#'); i >= 0 {
		base = base[:i]
	}
	return base + "#" + l.Fragment()
}

package assets

// Names of the built-in assets.
const (
	// BaseStyleName is the layout stylesheet shared by every theme.
	BaseStyleName = "base"

	EditorTemplate    = "editor"
	PresenterTemplate = "presenter"
	DeckTemplate      = "deck"

	// ClientTemplate defines the "client" script shared by the live pages.
	ClientTemplate = "client"
)

var defaultLoader = NewEmbeddedLoader()

// LoadStyle loads a CSS file by name using the default embedded loader.
func LoadStyle(name string) (string, error) {
	return defaultLoader.LoadStyle(name)
}

// LoadTemplate loads a page template by name using the default embedded loader.
func LoadTemplate(name string) (string, error) {
	return defaultLoader.LoadTemplate(name)
}

// ThemeStylesheet concatenates the base layout with the stylesheet of one
// theme, the form served to browsers and inlined into static builds.
func ThemeStylesheet(loader AssetLoader, themeID string) (string, error) {
	base, err := loader.LoadStyle(BaseStyleName)
	if err != nil {
		return "", err
	}
	theme, err := loader.LoadStyle(themeID)
	if err != nil {
		return "", err
	}
	return base + "\n" + theme, nil
}

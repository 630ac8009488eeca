// Package assets provides the theme stylesheets and page templates used by
// the server and by static deck builds.
//
// # Loader Architecture
//
//	AssetLoader (interface)
//	    │
//	    ├── EmbeddedLoader    - loads from go:embed filesystem (built-in themes)
//	    ├── FilesystemLoader  - loads from custom directory on disk
//	    └── AssetResolver     - combines both with custom-first fallback
//
// AssetResolver tries the custom FilesystemLoader first and falls back to
// the EmbeddedLoader when the asset is not found, so a user can override a
// single theme or page while keeping the rest.
//
// # Directory Structure
//
//	{basePath}/
//	├── styles/
//	│   ├── base.css             # layout shared by all themes
//	│   └── {themeID}.css        # one file per theme
//	└── templates/
//	    ├── editor.html          # editor view
//	    ├── presenter.html       # presenter view with notes
//	    └── deck.html            # self-contained static build
//
// Templates are html/template sources; the data they receive is defined by
// the caller.
//
// # Security
//
// Asset names are validated to prevent path traversal attacks.
// FilesystemLoader resolves symlinks and verifies paths stay within basePath.
package assets

package assets

import (
	"fmt"
	"html/template"
)

// ParsePage loads the named page template together with the shared client
// script and parses them into one html/template.
func ParsePage(loader AssetLoader, name string) (*template.Template, error) {
	page, err := loader.LoadTemplate(name)
	if err != nil {
		return nil, err
	}
	tmpl := template.New(name)
	if name != DeckTemplate {
		client, err := loader.LoadTemplate(ClientTemplate)
		if err != nil {
			return nil, err
		}
		if _, err := tmpl.New(ClientTemplate).Parse(client); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrTemplateParse, ClientTemplate, err)
		}
	}
	if _, err := tmpl.Parse(page); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrTemplateParse, name, err)
	}
	return tmpl, nil
}

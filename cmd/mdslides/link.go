package main

import (
	"fmt"
	"net/url"
	"strings"

	mdslides "github.com/alnah/go-mdslides"
	"github.com/alnah/go-mdslides/internal/config"
)

// runLink prints a deep link, or decodes one with --parse.
func runLink(args []string, env *Environment) error {
	flags, err := parseLinkFlags(args, env.Stderr)
	if err != nil {
		return err
	}

	if flags.parse != "" {
		fragment := flags.parse
		if u, err := url.Parse(flags.parse); err == nil && u.Fragment != "" {
			fragment = u.Fragment
		}
		link := mdslides.ParseDeepLink(fragment)
		fmt.Fprintf(env.Stdout, "slide:     %d\n", link.SlideIndex+1)
		fmt.Fprintf(env.Stdout, "theme:     %s\n", link.ThemeID)
		fmt.Fprintf(env.Stdout, "presenter: %t\n", link.Presenter)
		return nil
	}

	if flags.slide < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidSlide, flags.slide)
	}
	if !mdslides.IsValidTheme(flags.theme) {
		return fmt.Errorf("%w: %q", mdslides.ErrUnknownTheme, flags.theme)
	}

	base := flags.base
	if base == "" {
		base = "http://" + config.DefaultConfig().Server.Addr + "/"
		if flags.presenter {
			base += "presenter"
		}
	}
	if !strings.Contains(base, "://") {
		return fmt.Errorf("%w: --base must be an absolute URL, got %q", ErrUsage, base)
	}

	link := mdslides.DeepLink{SlideIndex: flags.slide - 1, ThemeID: flags.theme, Presenter: flags.presenter}
	fmt.Fprintln(env.Stdout, link.URL(base))
	return nil
}

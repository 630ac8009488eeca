package assets

import (
	"errors"
	"testing"
)

func TestValidateAssetName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		// Valid names
		{
			name:    "simple name",
			input:   "midnight",
			wantErr: nil,
		},
		{
			name:    "name with hyphen",
			input:   "my-theme",
			wantErr: nil,
		},
		{
			name:    "name with underscore",
			input:   "my_theme",
			wantErr: nil,
		},
		{
			name:    "name with numbers",
			input:   "theme123",
			wantErr: nil,
		},
		{
			name:    "mixed case",
			input:   "MyTheme",
			wantErr: nil,
		},

		// Invalid names - empty
		{
			name:    "empty name",
			input:   "",
			wantErr: ErrInvalidAssetName,
		},

		// Invalid names - path separators
		{
			name:    "forward slash",
			input:   "path/to/style",
			wantErr: ErrInvalidAssetName,
		},
		{
			name:    "backslash",
			input:   "path\\to\\style",
			wantErr: ErrInvalidAssetName,
		},

		// Invalid names - path traversal
		{
			name:    "parent directory traversal",
			input:   "../secret",
			wantErr: ErrInvalidAssetName,
		},
		{
			name:    "windows parent traversal",
			input:   "..\\secret",
			wantErr: ErrInvalidAssetName,
		},
		{
			name:    "double parent traversal",
			input:   "../../etc/passwd",
			wantErr: ErrInvalidAssetName,
		},

		// Invalid names - dots (could allow extension manipulation)
		{
			name:    "dot in name",
			input:   "style.css",
			wantErr: ErrInvalidAssetName,
		},
		{
			name:    "hidden file",
			input:   ".hidden",
			wantErr: ErrInvalidAssetName,
		},
		{
			name:    "double extension",
			input:   "style.css.bak",
			wantErr: ErrInvalidAssetName,
		},

		// Edge cases
		{
			name:    "absolute path unix",
			input:   "/etc/passwd",
			wantErr: ErrInvalidAssetName,
		},
		{
			name:    "absolute path windows",
			input:   "C:\\Windows\\System32",
			wantErr: ErrInvalidAssetName,
		},
		{
			name:    "just a dot",
			input:   ".",
			wantErr: ErrInvalidAssetName,
		},
		{
			name:    "two dots",
			input:   "..",
			wantErr: ErrInvalidAssetName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := ValidateAssetName(tt.input)

			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateAssetName(%q) unexpected error: %v", tt.input, err)
				}
				return
			}

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateAssetName(%q) error = %v, want %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

package cli

import (
	"reflect"
	"testing"
)

func TestNewFlags(t *testing.T) {
	flags := NewFlags()

	tests := []struct {
		name     string
		got      interface{}
		expected interface{}
	}{
		{"Provider", flags.Provider, "Microsoft"},
		{"Locale", flags.Locale, "en"},
		{"Addr", flags.Addr, ":8080"},
		{"Verbose", flags.Verbose, false},
		{"CfgFile", flags.CfgFile, ""},
		{"From", flags.From, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !reflect.DeepEqual(tt.got, tt.expected) {
				t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.expected)
			}
		})
	}
}

func TestFlagsStructure(t *testing.T) {
	flagsType := reflect.TypeOf(Flags{})

	expectedFields := []string{"CfgFile", "Provider", "Locale", "Verbose", "Addr", "From"}

	for _, fieldName := range expectedFields {
		t.Run("has_field_"+fieldName, func(t *testing.T) {
			if _, ok := flagsType.FieldByName(fieldName); !ok {
				t.Errorf("Flags struct missing field: %s", fieldName)
			}
		})
	}
}

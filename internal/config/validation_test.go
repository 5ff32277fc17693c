package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCapstanConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *CapstanConfig)
		wantErr []string
	}{
		{"defaults are valid", func(c *CapstanConfig) {}, nil},
		{"stdio ignores port", func(c *CapstanConfig) {
			c.Server.Transport = MCPTransportStdio
			c.Server.Port = 0
		}, nil},
		{"empty name", func(c *CapstanConfig) { c.Server.Name = " " }, []string{"server.name"}},
		{"unknown transport", func(c *CapstanConfig) { c.Server.Transport = "ws" }, []string{"server.transport"}},
		{"bad port", func(c *CapstanConfig) { c.Server.Port = 0 }, []string{"server.port"}},
		{"backups need a directory", func(c *CapstanConfig) { c.Workspace.BackupDir = "" }, []string{"workspace.backupDir"}},
		{"disabled backups need no directory", func(c *CapstanConfig) {
			c.Workspace.BackupDir = ""
			c.Workspace.BackupsEnabled = false
		}, nil},
		{"log level is case-insensitive", func(c *CapstanConfig) { c.Logging.Level = "DEBUG" }, nil},
		{"bad log settings", func(c *CapstanConfig) {
			c.Logging.Level = "trace"
			c.Logging.Format = "xml"
		}, []string{"logging.level", "logging.format"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if len(tt.wantErr) == 0 {
				assert.NoError(t, err)
				return
			}

			var verrs ValidationErrors
			if assert.True(t, errors.As(err, &verrs)) {
				assert.Len(t, verrs, len(tt.wantErr))
			}
			for _, field := range tt.wantErr {
				assert.Contains(t, err.Error(), field)
			}
		})
	}
}

func TestValidateEntityName(t *testing.T) {
	assert.NoError(t, ValidateEntityName("plugin-x", "extension"))
	assert.ErrorContains(t, ValidateEntityName("", "extension"), "is required for extension")
	assert.ErrorContains(t, ValidateEntityName("has space", "extension"), "cannot contain spaces")
}

func TestValidationErrors_Error(t *testing.T) {
	var errs ValidationErrors
	assert.Equal(t, "no validation errors", errs.Error())

	errs.Add("a", "is bad")
	assert.Equal(t, "field 'a': is bad", errs.Error())

	errs.Add("", "general problem")
	assert.Equal(t, "validation failed: field 'a': is bad; general problem", errs.Error())
}

func TestConfigurationErrorCollection(t *testing.T) {
	c := NewConfigurationErrorCollection()
	assert.False(t, c.HasErrors())
	assert.Equal(t, "no configuration errors", c.Error())

	c.Add(NewConfigurationError("/x/a.yaml", "a.yaml", "plugin-x", CategoryExtensions, ErrorTypeParse, "bad yaml"))
	c.Add(NewConfigurationErrorWithDetails("/x/b.tool.yaml", "b.tool.yaml", "plugin-y", CategoryTools, ErrorTypeValidation,
		"missing name", "name is required", []string{"add a name field"}))

	assert.Equal(t, 2, c.Count())
	assert.Equal(t, "2 configuration errors: [plugin-x/extensions] a.yaml: bad yaml (and 1 more)", c.Error())
	assert.Len(t, c.GetErrorsByCategory(CategoryTools), 1)
	assert.Contains(t, c.Errors[1].DetailedError(), "- add a name field")
}

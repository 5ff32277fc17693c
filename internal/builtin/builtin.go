// Package builtin declares capstan's bundled capability contributors.
//
// Every contributor is a plain struct whose dependencies are looked up
// through the api service locator when an owner is constructed. A fresh
// owner is built for every invocation and every condition check, so
// contributors hold no state between calls.
package builtin

import (
	"fmt"
	"os/exec"

	"capstan/internal/capability"
	"capstan/internal/completion"
	"capstan/internal/registry"
)

// Contributor refs.
const (
	DocumentToolsRef      = "core/content.DocumentTools"
	AssetToolsRef         = "core/assets.AssetTools"
	BackupToolsRef        = "core/maintenance.BackupTools"
	CatalogToolsRef       = "core/system.CatalogTools"
	HistoryToolsRef       = "core/git.HistoryTools"
	DocumentPromptsRef    = "core/prompts.DocumentPrompts"
	WorkspaceResourcesRef = "core/resources.WorkspaceResources"
)

// Completion provider refs.
const (
	DocumentPathsRef = "core/completion.DocumentPaths"
	TonesRef         = "core/completion.Tones"
)

// Classes returns the descriptor of every bundled contributor, including
// the git companion.
func Classes() []*capability.Class {
	return []*capability.Class{
		documentToolsClass(),
		assetToolsClass(),
		backupToolsClass(),
		catalogToolsClass(),
		historyToolsClass(),
		documentPromptsClass(),
		workspaceResourcesClass(),
	}
}

// Core returns the bundled contributor refs per kind. The git companion is
// not listed; see GitCompanion.
func Core() map[capability.Kind][]string {
	return map[capability.Kind][]string{
		capability.KindTool: {
			DocumentToolsRef,
			AssetToolsRef,
			BackupToolsRef,
			CatalogToolsRef,
		},
		capability.KindPrompt: {
			DocumentPromptsRef,
		},
		capability.KindResource: {
			WorkspaceResourcesRef,
		},
	}
}

// GitCompanion returns the companion tool contributor, registered only
// when a git executable is installed.
func GitCompanion() *registry.Companion {
	return &registry.Companion{
		Ref:   HistoryToolsRef,
		Probe: gitInstalled,
	}
}

var lookPath = exec.LookPath

func gitInstalled() (bool, error) {
	if _, err := lookPath("git"); err != nil {
		return false, err
	}
	return true, nil
}

// Register adds every bundled class to types and every bundled completion
// provider to completions.
func Register(types *capability.Types, completions *completion.Catalog) error {
	if err := types.Register(Classes()...); err != nil {
		return fmt.Errorf("failed to register bundled contributors: %w", err)
	}
	if err := completions.Register(DocumentPathsRef, completion.New(documentPaths)); err != nil {
		return fmt.Errorf("failed to register completion provider: %w", err)
	}
	if err := completions.Register(TonesRef, completion.Static(Tones()...)); err != nil {
		return fmt.Errorf("failed to register completion provider: %w", err)
	}
	return nil
}

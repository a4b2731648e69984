package cli

import "github.com/nhle/volunteer-board/internal/credential"

// SetVaultOpener swaps the credential store for the duration of a test.
func SetVaultOpener(open func() (*credential.Vault, error)) (restore func()) {
	prev := openVault
	openVault = open
	return func() { openVault = prev }
}

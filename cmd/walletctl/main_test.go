package main

import (
	"errors"
	"testing"
)

func TestBalanceWithoutWalletReturnsError(t *testing.T) {
	withTempConfig(t)

	err := cmdBalance(nil)
	if !errors.Is(err, errNoWallet) {
		t.Fatalf("expected errNoWallet, got %v", err)
	}
}

func TestHistoryWithoutWalletReturnsError(t *testing.T) {
	withTempConfig(t)

	err := cmdHistory(nil)
	if !errors.Is(err, errNoWallet) {
		t.Fatalf("expected errNoWallet, got %v", err)
	}
}

func TestSocialUsageErrors(t *testing.T) {
	withTempConfig(t)

	if err := cmdSocial(nil); err == nil {
		t.Error("missing subcommand should error")
	}
	if err := cmdSocial([]string{"connect"}); err == nil {
		t.Error("missing platform should error")
	}
}

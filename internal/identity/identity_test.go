package identity_test

import (
	"testing"

	"stagegate/internal/identity"
)

func TestRoleProviderGrants(t *testing.T) {
	provider := identity.NewRoleProvider(map[string][]string{
		"processor": {identity.CapAdvanceLoanStage, identity.CapViewLoans},
		"broker":    {identity.CapRecordSignal},
	})

	processor := identity.Actor{ID: "u1", Name: "Dana", Roles: []string{"processor"}}
	broker := identity.Actor{ID: "u2", Name: "Kim", Roles: []string{"broker"}}

	if !provider.HasCapability(processor, identity.CapAdvanceLoanStage) {
		t.Fatal("processor should advance loan stages")
	}
	if provider.HasCapability(broker, identity.CapAdvanceLoanStage) {
		t.Fatal("broker must not advance loan stages")
	}
	if !provider.HasCapability(broker, identity.CapRecordSignal) {
		t.Fatal("broker should record signals")
	}
}

func TestRoleProviderNormalizesCase(t *testing.T) {
	provider := identity.NewRoleProvider(map[string][]string{
		"Processor": {" Advance_Loan_Stage "},
	})
	actor := identity.Actor{Roles: []string{"PROCESSOR"}}
	if !provider.HasCapability(actor, identity.CapAdvanceLoanStage) {
		t.Fatal("expected case-insensitive role and capability matching")
	}
}

func TestUnknownRoleGrantsNothing(t *testing.T) {
	provider := identity.NewRoleProvider(map[string][]string{})
	actor := identity.Actor{Roles: []string{"ghost"}}
	if provider.HasCapability(actor, identity.CapViewLoans) {
		t.Fatal("unknown role must grant nothing")
	}
	if provider.HasCapability(actor, "") {
		t.Fatal("empty capability must never be granted")
	}
}

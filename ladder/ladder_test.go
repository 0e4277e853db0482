package ladder

import "testing"

func TestValidateAcceptsSingleDriver(t *testing.T) {
	p := Program{Rungs: []Rung{
		{Elements: []Element{
			{Kind: Contact, SourceID: "in1", NormallyOpen: true},
			{Kind: Coil, TargetID: "out1"},
		}},
	}}
	if err := Validate(p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateRejectsMultipleDriversAcrossRungs(t *testing.T) {
	p := Program{Rungs: []Rung{
		{Elements: []Element{{Kind: Coil, TargetID: "motor"}}},
		{Elements: []Element{{Kind: Coil, TargetID: "motor"}}},
	}}
	err := Validate(p)
	if err == nil {
		t.Fatal("expected MultipleDriversError, got nil")
	}
	md, ok := err.(MultipleDriversError)
	if !ok {
		t.Fatalf("expected MultipleDriversError, got %T", err)
	}
	if md.ID != "motor" {
		t.Fatalf("got ID %q, want motor", md.ID)
	}
}

func TestValidateRejectsMultipleDriversSameRung(t *testing.T) {
	p := Program{Rungs: []Rung{
		{Elements: []Element{
			{Kind: Coil, TargetID: "x"},
			{Kind: Coil, TargetID: "x"},
		}},
	}}
	if err := Validate(p); err == nil {
		t.Fatal("expected error for two coils on one rung driving same id")
	}
}

func TestValidateAllowsDanglingContactReferences(t *testing.T) {
	p := Program{Rungs: []Rung{
		{Elements: []Element{
			{Kind: Contact, SourceID: "never_driven", NormallyOpen: true},
			{Kind: Coil, TargetID: "out1"},
		}},
	}}
	if err := Validate(p); err != nil {
		t.Fatalf("dangling contact references should not be a load error: %v", err)
	}
}

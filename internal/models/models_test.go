package models

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestDraftMissingFields(t *testing.T) {
	var d Draft
	missing := d.MissingFields()
	if len(missing) != 5 {
		t.Fatalf("expected 5 missing fields on empty draft, got %d: %v", len(missing), missing)
	}
	want := map[string]bool{
		"customer_name": true, "service_address": true, "issue_type": true,
		"callback_primary": true, "issue_description": true,
	}
	for _, f := range missing {
		if !want[f] {
			t.Errorf("unexpected missing field %q", f)
		}
	}

	d.CustomerName = "Pat"
	d.CallbackPrimary = "+15550100"
	missing = d.MissingFields()
	if len(missing) != 3 {
		t.Errorf("expected 3 missing fields, got %v", missing)
	}
}

func TestDraftValidate(t *testing.T) {
	d := Draft{
		IssueType:        IssueTypeHeatingRepair,
		CustomerName:     "Pat",
		ServiceAddress:   "12 Oak St",
		CallbackPrimary:  "+15550100",
		IssueDescription: "no heat",
	}
	if err := d.Validate(); err != nil {
		t.Errorf("complete draft should validate, got %v", err)
	}

	d.IssueDescription = ""
	err := d.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if !strings.Contains(verr.Error(), "issue_description") {
		t.Errorf("error should name the missing field; got %q", verr.Error())
	}
}

func TestNewServiceRequestDefaultsOwnership(t *testing.T) {
	d := Draft{
		IssueType:        IssueTypeACRepair,
		CustomerName:     "Pat",
		ServiceAddress:   "12 Oak St",
		CallbackPrimary:  "+15550100",
		IssueDescription: "blowing warm air",
	}
	req := NewServiceRequest("123456", d, time.Now())
	if req.Ownership != "unknown" {
		t.Errorf("expected ownership to default to unknown, got %q", req.Ownership)
	}
	if req.Status != RequestStatusPending {
		t.Errorf("expected pending status, got %q", req.Status)
	}
	if req.CreatedAt.Location() != time.UTC {
		t.Error("created_at should be stored in UTC")
	}
}

func TestGlobalDataClone(t *testing.T) {
	bag := GlobalData{KeyLastRequestID: "123456"}
	clone := bag.Clone()
	clone[KeyLastRequestID] = "654321"
	if bag.String(KeyLastRequestID) != "123456" {
		t.Error("mutating a clone must not touch the original bag")
	}
}

package sampledata

import (
	"os"
	"path/filepath"
	"testing"
)

func writeBundle(t *testing.T, path string, entries string) {
	t.Helper()
	content := `{"resourceType":"Bundle","entry":[` + entries + `]}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing bundle %s: %v", path, err)
	}
}

func TestResourceIterOrganizationReadsOnlyHospitals(t *testing.T) {
	dir := t.TempDir()
	hospitals := filepath.Join(dir, "hospitalInformation1.json")
	practitioners := filepath.Join(dir, "practitionerInformation1.json")

	writeBundle(t, hospitals, `{"resource":{"resourceType":"Organization","id":"org-1"}},{"resource":{"resourceType":"Organization","id":"org-2"}}`)
	writeBundle(t, practitioners, `{"resource":{"resourceType":"Organization","id":"org-should-not-appear"}}`)

	data := &SampleData{Hospitals: hospitals, Practitioners: practitioners}
	it := NewResourceIter(data, "Organization")

	var got []string
	for {
		res, ok := it.Next()
		if !ok {
			break
		}
		got = append(got, res.Metadata.SourceID)
	}
	if err := it.Err(); err != nil {
		t.Fatalf("iteration error: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("got %d resources, want 2: %v", len(got), got)
	}
	for _, id := range got {
		if id == "org-should-not-appear" {
			t.Errorf("Organization iterator read the practitioners file")
		}
	}
}

func TestResourceIterDedupesBySourceID(t *testing.T) {
	dir := t.TempDir()
	hospitals := filepath.Join(dir, "hospitalInformation1.json")
	practitioners := filepath.Join(dir, "practitionerInformation1.json")
	patient := filepath.Join(dir, "patient1.json")

	writeBundle(t, hospitals, `{"resource":{"resourceType":"Patient","id":"dup-1"}}`)
	writeBundle(t, practitioners, ``)
	writeBundle(t, patient, `{"resource":{"resourceType":"Patient","id":"dup-1"}},{"resource":{"resourceType":"Patient","id":"pat-2"}}`)

	data := &SampleData{Hospitals: hospitals, Practitioners: practitioners, Patients: []string{patient}}
	it := NewResourceIter(data, "Patient")

	var ids []string
	for {
		res, ok := it.Next()
		if !ok {
			break
		}
		ids = append(ids, res.Metadata.SourceID)
	}
	if err := it.Err(); err != nil {
		t.Fatalf("iteration error: %v", err)
	}

	if len(ids) != 2 {
		t.Fatalf("got %d resources (expected dedup to 2): %v", len(ids), ids)
	}
}

func TestResourceIterFiltersByResourceType(t *testing.T) {
	dir := t.TempDir()
	hospitals := filepath.Join(dir, "hospitalInformation1.json")
	practitioners := filepath.Join(dir, "practitionerInformation1.json")

	writeBundle(t, hospitals, `{"resource":{"resourceType":"Organization","id":"org-1"}},{"resource":{"resourceType":"Location","id":"loc-1"}}`)
	writeBundle(t, practitioners, `{"resource":{"resourceType":"Practitioner","id":"pra-1"}}`)

	data := &SampleData{Hospitals: hospitals, Practitioners: practitioners}
	it := NewResourceIter(data, "Practitioner")

	res, ok := it.Next()
	if !ok {
		t.Fatalf("expected one Practitioner resource, iteration error: %v", it.Err())
	}
	if res.Metadata.ResourceType != "Practitioner" || res.Metadata.SourceID != "pra-1" {
		t.Errorf("got %+v", res.Metadata)
	}

	if _, ok := it.Next(); ok {
		t.Error("expected iterator to be exhausted after one matching resource")
	}
}

func TestResourceIterMalformedBundleIsFatal(t *testing.T) {
	dir := t.TempDir()
	hospitals := filepath.Join(dir, "hospitalInformation1.json")
	practitioners := filepath.Join(dir, "practitionerInformation1.json")

	if err := os.WriteFile(hospitals, []byte(`{"resourceType":"Bundle","entry":"not-an-array"}`), 0o644); err != nil {
		t.Fatalf("writing malformed bundle: %v", err)
	}
	writeBundle(t, practitioners, ``)

	data := &SampleData{Hospitals: hospitals, Practitioners: practitioners}
	it := NewResourceIter(data, "Organization")

	if _, ok := it.Next(); ok {
		t.Fatal("expected malformed bundle to stop iteration")
	}
	if it.Err() == nil {
		t.Error("expected a fatal error for malformed bundle")
	}
}

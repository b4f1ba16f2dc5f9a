package sampledata

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// ResourceMetadata identifies where a SampleResource came from and what it is.
type ResourceMetadata struct {
	SourceFile   string
	ResourceType string
	SourceID     string
}

// SampleResource is one FHIR resource extracted from a generated bundle file, along with
// the raw JSON needed to submit it to a server under test.
type SampleResource struct {
	Metadata     ResourceMetadata
	ResourceJSON []byte
}

// ResourceIter is a stateful, lazy, non-restartable iterator over a SampleData set,
// filtered to one FHIR resource type. It pops one bundle file at a time and drains it,
// never holding more than one file's parsed contents in memory at once (spec §9:
// "a million-patient run should not mmap all files at once").
type ResourceIter struct {
	resourceType string
	pendingFiles []string
	buffer       []SampleResource
	seen         map[string]struct{}
	err          error
}

// NewResourceIter constructs a ResourceIter over data, filtered to resourceType. For
// "Organization" only the hospitals file is read, since the generator places every
// unique Organization there (a documented optimization, spec §4.1); for any other type
// the queue is hospitals, then practitioners, then every patient file, in that order.
func NewResourceIter(data *SampleData, resourceType string) *ResourceIter {
	var files []string
	if resourceType == "Organization" {
		files = []string{data.Hospitals}
	} else {
		files = append(files, data.Hospitals, data.Practitioners)
		files = append(files, data.Patients...)
	}

	return &ResourceIter{
		resourceType: resourceType,
		pendingFiles: files,
		seen:         make(map[string]struct{}),
	}
}

// Err returns the first fatal error encountered during iteration, if any. Once non-nil,
// Next will always return (nil, false).
func (it *ResourceIter) Err() error {
	return it.err
}

// Next returns the next matching, not-yet-seen SampleResource, or (nil, false) once the
// iterator is exhausted or has hit a fatal error (check Err() to distinguish the two).
func (it *ResourceIter) Next() (*SampleResource, bool) {
	for {
		if len(it.buffer) > 0 {
			next := it.buffer[0]
			it.buffer = it.buffer[1:]
			return &next, true
		}

		if it.err != nil || len(it.pendingFiles) == 0 {
			return nil, false
		}

		if err := it.loadNextFile(); err != nil {
			it.err = err
			return nil, false
		}
	}
}

// loadNextFile pops the next pending bundle file, parses it, and fills the buffer with
// every entry matching the requested resource type that hasn't already been seen.
func (it *ResourceIter) loadNextFile() error {
	file := it.pendingFiles[0]
	it.pendingFiles = it.pendingFiles[1:]

	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("unable to read bundle file %q: %w", file, err)
	}

	entries := gjson.GetBytes(data, "entry")
	if !entries.IsArray() {
		return fmt.Errorf("bundle file %q has no array 'entry' field", file)
	}

	var fatalErr error
	entries.ForEach(func(_, entry gjson.Result) bool {
		resource := entry.Get("resource")
		if !resource.Exists() {
			return true
		}

		if resource.Get("resourceType").String() != it.resourceType {
			return true
		}

		sourceID := resource.Get("id").String()
		if sourceID == "" {
			sourceID = uuid.NewString()
		}

		if _, dup := it.seen[sourceID]; dup {
			return true
		}
		it.seen[sourceID] = struct{}{}

		it.buffer = append(it.buffer, SampleResource{
			Metadata: ResourceMetadata{
				SourceFile:   file,
				ResourceType: it.resourceType,
				SourceID:     sourceID,
			},
			ResourceJSON: []byte(resource.Raw),
		})
		return true
	})

	return fatalErr
}

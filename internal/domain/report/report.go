// Package report projects patient records into demographic summaries shaped as
// FHIR collection bundles of Observation resources.
package report

import (
	"strings"
	"time"

	"github.com/dmehra2102/prod-golang-projects/clinicflow/internal/domain/patient"
)

type Kind string

const (
	KindAge    Kind = "age"
	KindGender Kind = "gender"
)

// Bucket labels in the order they are reported.
var (
	AgeBuckets    = []string{"0-17", "18-30", "31-45", "46-60", "61-75", "76+"}
	GenderBuckets = []string{"male", "female", "other", "unknown"}
)

const (
	categorySystem = "http://terminology.hl7.org/CodeSystem/observation-category"
	categoryCode   = "social-history"
	loincSystem    = "http://loinc.org"
)

var observationCodes = map[Kind]Coding{
	KindAge:    {System: loincSystem, Code: "30525-0", Display: "Age"},
	KindGender: {System: loincSystem, Code: "76689-9", Display: "Sex assigned at birth"},
}

func AgeBucket(age int) string {
	switch {
	case age <= 17:
		return "0-17"
	case age <= 30:
		return "18-30"
	case age <= 45:
		return "31-45"
	case age <= 60:
		return "46-60"
	case age <= 75:
		return "61-75"
	default:
		return "76+"
	}
}

func GenderBucket(gender string) string {
	switch g := strings.ToLower(strings.TrimSpace(gender)); g {
	case "":
		return "unknown"
	case "male", "female", "unknown":
		return g
	default:
		return "other"
	}
}

// Distribution holds a count per bucket, in Buckets order.
type Distribution struct {
	Kind    Kind
	Buckets []string
	Counts  map[string]int
}

func newDistribution(kind Kind, buckets []string) *Distribution {
	counts := make(map[string]int, len(buckets))
	for _, b := range buckets {
		counts[b] = 0
	}
	return &Distribution{Kind: kind, Buckets: buckets, Counts: counts}
}

// AgeDistribution skips patients with neither an age nor a date of birth.
func AgeDistribution(patients []*patient.Patient, now time.Time) *Distribution {
	d := newDistribution(KindAge, AgeBuckets)
	for _, p := range patients {
		age, ok := p.AgeOn(now)
		if !ok {
			continue
		}
		d.Counts[AgeBucket(age)]++
	}
	return d
}

func GenderDistribution(patients []*patient.Patient) *Distribution {
	d := newDistribution(KindGender, GenderBuckets)
	for _, p := range patients {
		d.Counts[GenderBucket(p.Gender)]++
	}
	return d
}

// Bundle renders the distribution with one Observation per bucket.
func (d *Distribution) Bundle(now time.Time) *Bundle {
	code := observationCodes[d.Kind]
	b := &Bundle{
		ResourceType: "Bundle",
		Type:         "collection",
		Timestamp:    now.UTC(),
		Entry:        make([]BundleEntry, 0, len(d.Buckets)),
	}

	for _, bucket := range d.Buckets {
		groupID := string(d.Kind) + "-" + bucket
		b.Entry = append(b.Entry, BundleEntry{
			Resource: Observation{
				ResourceType: "Observation",
				ID:           groupID,
				Status:       "final",
				Category: []CodeableConcept{{
					Coding: []Coding{{System: categorySystem, Code: categoryCode}},
				}},
				Code:         CodeableConcept{Coding: []Coding{code}, Text: bucket},
				ValueInteger: d.Counts[bucket],
				Subject:      Reference{Reference: "Group/" + groupID},
			},
		})
	}
	b.Total = len(b.Entry)
	return b
}

type Bundle struct {
	ResourceType string        `json:"resourceType"`
	Type         string        `json:"type"`
	Timestamp    time.Time     `json:"timestamp"`
	Total        int           `json:"total"`
	Entry        []BundleEntry `json:"entry"`
}

type BundleEntry struct {
	Resource Observation `json:"resource"`
}

type Observation struct {
	ResourceType string            `json:"resourceType"`
	ID           string            `json:"id"`
	Status       string            `json:"status"`
	Category     []CodeableConcept `json:"category"`
	Code         CodeableConcept   `json:"code"`
	ValueInteger int               `json:"valueInteger"`
	Subject      Reference         `json:"subject"`
}

type CodeableConcept struct {
	Coding []Coding `json:"coding"`
	Text   string   `json:"text,omitempty"`
}

type Coding struct {
	System  string `json:"system"`
	Code    string `json:"code"`
	Display string `json:"display,omitempty"`
}

type Reference struct {
	Reference string `json:"reference"`
}

//go:build pact
// +build pact

package pacttest

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

const (
	ProviderName = "petfinder-api"
	ConsumerName = "pet-portal"

	StatePetsBaseline = "pets baseline"
	StatePetExists    = "pet with id 1 exists"
	StatePetLost      = "pet with id 1 is lost"
	StatePetMissing   = "no pet with id 404"
)

const (
	ExistingPetID uint64 = 1
	MissingPetID  uint64 = 404

	OwnerIdentity  = "pact-owner"
	FinderIdentity = "pact-finder"
	LostLocation   = "Central Park"
)

const (
	examplePetName   = "Fluffy Pact Cat"
	examplePetBreed  = "Maine Coon"
	examplePetColor  = "Grey"
	examplePhotoURL  = "https://example.pact/pets/fluffy.png"
	exampleFinder    = "Bob"
	exampleFoundAt   = "5th Ave"
	exampleTimestamp = "2024-06-12T10:00:00Z"
)

// PactDir returns the workspace-level directory for generated pact files.
func PactDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "pacts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact dir: %v", err)
	}
	return dir
}

// PactFile returns the canonical pact file path for the pet portal consumer.
func PactFile(t testing.TB) string {
	t.Helper()
	return filepath.Join(PactDir(t), ConsumerName+"-"+ProviderName+".json")
}

// LogDir returns the log output directory for pact-go.
func LogDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "bin", "pact-logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact log dir: %v", err)
	}
	return dir
}

// ExamplePetDetails provides stable descriptive fields for pact interactions.
func ExamplePetDetails() map[string]any {
	return map[string]any{
		"name":           examplePetName,
		"breed":          examplePetBreed,
		"color":          examplePetColor,
		"photoReference": examplePhotoURL,
	}
}

// ExamplePetPayload is the registered pet as the provider returns it.
func ExamplePetPayload() map[string]any {
	payload := ExamplePetDetails()
	payload["id"] = ExistingPetID
	payload["owner"] = OwnerIdentity
	payload["status"] = "available"
	payload["isLost"] = false
	payload["createdAt"] = exampleTimestamp
	return payload
}

// ExampleFoundReport provides the body of a found report.
func ExampleFoundReport() map[string]any {
	return map[string]any{
		"finderName":    exampleFinder,
		"foundLocation": exampleFoundAt,
	}
}

// projectRoot walks up from this file to the workspace root.
func projectRoot(t testing.TB) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine caller for pact paths")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}

// Package testing provides helpers for testing element trees built with
// arbor.
//
// # Quick Start
//
// Create a tester, build a tree and make assertions:
//
//	func TestMyTree(t *testing.T) {
//	    tester := arbortest.NewTester(t)
//	    list := tester.Build("list", core.Key("items"))
//	    core.Data[int](list).Set([]int{1, 2, 3})
//	    tester.Render(list)
//
//	    if !tester.Find(arbortest.ByText("2")).Exists() {
//	        t.Error("expected record 2 to be rendered")
//	    }
//	    tester.CheckLinks(list)
//	}
//
// # Snapshot Testing
//
// Capture and compare tree snapshots:
//
//	snapshot := arbortest.Capture(list)
//	snapshot.MatchesFile(t, "testdata/list.snapshot.json")
//
// Update snapshots with:
//
//	ARBOR_UPDATE_SNAPSHOTS=1 go test ./...
//
// # Import Alias
//
// Since this package has the same name as the standard library testing
// package, import it with an alias:
//
//	import arbortest "github.com/go-drift/arbor/pkg/testing"
package testing

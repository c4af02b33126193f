package graph_test

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pageflowhq/pageflow/pkg/flow"
	"github.com/pageflowhq/pageflow/pkg/graph"
)

func ExampleWriteGraph() {
	// Build a tiny journey graph
	g := flow.NewGraph()
	_ = g.AddNode(flow.Node{ID: "/", Type: flow.NodeStart, Visits: 3, UniqueSessions: 2})
	_ = g.AddNode(flow.Node{ID: "/pricing", Title: "Pricing", Type: flow.NodeEnd, Visits: 2, UniqueSessions: 2, BounceRate: 100})
	_ = g.AddEdge(flow.Edge{From: "/", To: "/pricing", Count: 2, Sessions: 2, Percentage: 100})

	// Write to a buffer (or any io.Writer)
	var buf bytes.Buffer
	if err := graph.WriteGraph(g, &buf); err != nil {
		fmt.Println("Error:", err)
		return
	}

	fmt.Println(buf.String())
	// Output:
	// {
	//   "nodes": [
	//     {
	//       "id": "/",
	//       "type": "start",
	//       "visits": 3,
	//       "unique_sessions": 2
	//     },
	//     {
	//       "id": "/pricing",
	//       "title": "Pricing",
	//       "type": "end",
	//       "visits": 2,
	//       "unique_sessions": 2,
	//       "bounce_rate": 100
	//     }
	//   ],
	//   "edges": [
	//     {
	//       "from": "/",
	//       "to": "/pricing",
	//       "count": 2,
	//       "sessions": 2,
	//       "percentage": 100
	//     }
	//   ]
	// }
}

func ExampleReadGraph() {
	// JSON input representing a journey graph
	jsonData := `{
		"nodes": [
			{"id": "/", "type": "start", "visits": 3, "unique_sessions": 2},
			{"id": "/docs", "type": "end", "visits": 2, "unique_sessions": 2}
		],
		"edges": [
			{"from": "/", "to": "/docs", "count": 2, "sessions": 2}
		]
	}`

	g, err := graph.ReadGraph(bytes.NewReader([]byte(jsonData)))
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	fmt.Println("Nodes:", g.NodeCount())
	fmt.Println("Edges:", g.EdgeCount())
	fmt.Println("Out-degree of /:", g.OutDegree("/"))
	// Output:
	// Nodes: 2
	// Edges: 1
	// Out-degree of /: 1
}

func ExampleReadGraphFile() {
	// Create a temporary JSON file
	tmpDir := os.TempDir()
	path := filepath.Join(tmpDir, "example-journeys.graph.json")

	jsonData := []byte(`{
		"nodes": [
			{"id": "/", "type": "start", "visits": 4, "unique_sessions": 3},
			{"id": "/signup", "type": "intermediate", "visits": 3, "unique_sessions": 3},
			{"id": "/welcome", "type": "end", "visits": 2, "unique_sessions": 2}
		],
		"edges": [
			{"from": "/", "to": "/signup", "count": 3, "sessions": 3},
			{"from": "/signup", "to": "/welcome", "count": 2, "sessions": 2}
		]
	}`)

	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		fmt.Println("Error:", err)
		return
	}
	defer os.Remove(path)

	g, err := graph.ReadGraphFile(path)
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	fmt.Println("Imported", g.NodeCount(), "pages")
	fmt.Println("Entry pages:", len(g.StartNodes()))
	// Output:
	// Imported 3 pages
	// Entry pages: 1
}

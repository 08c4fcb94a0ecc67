package parser

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Edge represents a weighted edge between 0-based node indices
type Edge struct {
	From   int
	To     int
	Weight float64
}

// GraphData is the raw content of a graph file.
type GraphData struct {
	NumNodes int
	Edges    []Edge
	Directed bool
}

// ReadGraphFile reads a Pajek file (.net) or a whitespace separated edge
// list (any other extension).
func ReadGraphFile(filename string) (*GraphData, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("could not open graph file %s: %w", filename, err)
	}
	defer file.Close()

	if strings.EqualFold(filepath.Ext(filename), ".net") {
		return ReadPajek(file)
	}
	return ReadEdgeList(file)
}

// ReadEdgeList parses "from to [weight]" lines with 0-based indices. Blank
// lines and lines starting with '#' or '%' are skipped. The node count is one
// more than the largest index seen.
func ReadEdgeList(r io.Reader) (*GraphData, error) {
	data := &GraphData{}

	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "%") {
			continue
		}

		edge, err := parseEdge(strings.Fields(line), 0)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		data.Edges = append(data.Edges, edge)
		if edge.From >= data.NumNodes {
			data.NumNodes = edge.From + 1
		}
		if edge.To >= data.NumNodes {
			data.NumNodes = edge.To + 1
		}
	}

	return data, scanner.Err()
}

type pajekSection int

const (
	sectionNone pajekSection = iota
	sectionVertices
	sectionEdges
	sectionArcs
	sectionEdgesList
	sectionArcsList
)

// ReadPajek parses the Pajek .net subset used for weighted graphs:
// *Vertices, *Edges, *Arcs, *Edgeslist and *Arcslist sections with 1-based
// indices. Any *Arcs section makes the graph directed; undirected edges are
// then stored in both directions.
func ReadPajek(r io.Reader) (*GraphData, error) {
	data := &GraphData{}
	var undirected []Edge

	section := sectionNone
	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "%") {
			continue
		}

		if strings.HasPrefix(line, "*") {
			fields := strings.Fields(line)
			switch strings.ToLower(fields[0]) {
			case "*vertices":
				if len(fields) < 2 {
					return nil, fmt.Errorf("line %d: *Vertices without a count", lineNum)
				}
				n, err := strconv.Atoi(fields[1])
				if err != nil || n < 0 {
					return nil, fmt.Errorf("line %d: invalid vertex count %q", lineNum, fields[1])
				}
				data.NumNodes = n
				section = sectionVertices
			case "*edges":
				section = sectionEdges
			case "*arcs":
				section = sectionArcs
				data.Directed = true
			case "*edgeslist":
				section = sectionEdgesList
			case "*arcslist":
				section = sectionArcsList
				data.Directed = true
			default:
				return nil, fmt.Errorf("line %d: unsupported section %s", lineNum, fields[0])
			}
			continue
		}

		fields := strings.Fields(line)
		switch section {
		case sectionVertices:
			// Labels and coordinates are not used.
		case sectionEdges, sectionArcs:
			edge, err := parseEdge(fields, 1)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNum, err)
			}
			if section == sectionArcs {
				data.Edges = append(data.Edges, edge)
			} else {
				undirected = append(undirected, edge)
			}
		case sectionEdgesList, sectionArcsList:
			from, err := parseIndex(fields[0], 1)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNum, err)
			}
			for _, f := range fields[1:] {
				to, err := parseIndex(f, 1)
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", lineNum, err)
				}
				edge := Edge{From: from, To: to, Weight: 1}
				if section == sectionArcsList {
					data.Edges = append(data.Edges, edge)
				} else {
					undirected = append(undirected, edge)
				}
			}
		default:
			return nil, fmt.Errorf("line %d: data before any section header", lineNum)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	for _, e := range undirected {
		data.Edges = append(data.Edges, e)
		if data.Directed && e.From != e.To {
			data.Edges = append(data.Edges, Edge{From: e.To, To: e.From, Weight: e.Weight})
		}
	}

	for _, e := range data.Edges {
		if e.From >= data.NumNodes || e.To >= data.NumNodes {
			return nil, fmt.Errorf("edge %d -> %d references a vertex beyond *Vertices %d", e.From+1, e.To+1, data.NumNodes)
		}
	}
	return data, nil
}

func parseEdge(fields []string, base int) (Edge, error) {
	if len(fields) < 2 {
		return Edge{}, fmt.Errorf("expected at least 2 fields, got %d", len(fields))
	}
	from, err := parseIndex(fields[0], base)
	if err != nil {
		return Edge{}, err
	}
	to, err := parseIndex(fields[1], base)
	if err != nil {
		return Edge{}, err
	}

	weight := 1.0
	if len(fields) >= 3 {
		weight, err = strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return Edge{}, fmt.Errorf("invalid weight %q: %w", fields[2], err)
		}
	}
	return Edge{From: from, To: to, Weight: weight}, nil
}

func parseIndex(s string, base int) (int, error) {
	idx, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid node index %q: %w", s, err)
	}
	idx -= base
	if idx < 0 {
		return 0, fmt.Errorf("node index %q below %d", s, base)
	}
	return idx, nil
}

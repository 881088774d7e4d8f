// Package topic renders topic transitions: a chain per main topic, cross-topic edges where
// chronologically adjacent events share sub-topics, and a clustered time-by-topic scatter.
package topic

import (
	"fmt"
	"sort"
	"time"

	"github.com/hyperjump/narraview/internal/models"
)

// EdgeKind distinguishes same-topic chains from cross-topic links.
type EdgeKind string

const (
	SameTopic  EdgeKind = "same_topic"
	CrossTopic EdgeKind = "cross_topic"
)

// Node is one event in the topic graph.
type Node struct {
	Key   string       `json:"key"`
	Index int          `json:"index"`
	Event models.Event `json:"-"`
	// When is the event's real time, or the time it inherits when undated. It orders edges
	// only; placement reads the event's own real time.
	When     time.Time `json:"when"`
	HasWhen  bool      `json:"has_when"`
	Position int       `json:"position"`
}

// Edge links two nodes by key.
type Edge struct {
	Kind   EdgeKind `json:"kind"`
	Source string   `json:"source"`
	Target string   `json:"target"`
	Shared []string `json:"shared,omitempty"`
}

// Graph is the node and edge set in chronological order.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Chronological orders events by real time. An undated event inherits the real time of the
// nearest preceding dated event in narrative order, or of the first dated event when none
// precedes it. Ties fall back to narrative time, then input position.
func Chronological(events []models.Event) []Node {
	nodes := make([]Node, len(events))
	for i, ev := range events {
		nodes[i] = Node{Index: ev.Index, Event: ev, Position: i}
	}
	byNarrative := make([]*Node, len(nodes))
	for i := range nodes {
		byNarrative[i] = &nodes[i]
	}
	sort.SliceStable(byNarrative, func(i, j int) bool {
		return byNarrative[i].Event.Temporal.NarrativeTime < byNarrative[j].Event.Temporal.NarrativeTime
	})
	var last *time.Time
	var pending []*Node
	for _, n := range byNarrative {
		if n.Event.Temporal.HasRealTime() {
			last = n.Event.Temporal.RealTime
			n.When, n.HasWhen = *last, true
			for _, p := range pending {
				p.When, p.HasWhen = *last, true
			}
			pending = nil
			continue
		}
		if last != nil {
			n.When, n.HasWhen = *last, true
		} else {
			pending = append(pending, n)
		}
	}

	sort.SliceStable(nodes, func(i, j int) bool {
		a, b := nodes[i], nodes[j]
		if !a.When.Equal(b.When) {
			return a.When.Before(b.When)
		}
		if a.Event.Temporal.NarrativeTime != b.Event.Temporal.NarrativeTime {
			return a.Event.Temporal.NarrativeTime < b.Event.Temporal.NarrativeTime
		}
		return a.Position < b.Position
	})

	seen := make(map[string]int)
	for i := range nodes {
		stamp := "undated"
		if nodes[i].Event.Temporal.HasRealTime() {
			stamp = nodes[i].Event.Temporal.RealTime.Format(time.RFC3339)
		}
		base := nodes[i].Event.Topic.MainTopic + "-" + stamp
		nodes[i].Key = fmt.Sprintf("%s-%d", base, seen[base])
		seen[base]++
	}
	return nodes
}

// Build returns the chronological nodes with their same-topic and cross-topic edges.
func Build(events []models.Event) Graph {
	nodes := Chronological(events)
	g := Graph{Nodes: nodes}
	lastByTopic := make(map[string]string)
	for i, n := range nodes {
		topic := n.Event.Topic.MainTopic
		if prev, ok := lastByTopic[topic]; ok {
			g.Edges = append(g.Edges, Edge{Kind: SameTopic, Source: prev, Target: n.Key})
		}
		lastByTopic[topic] = n.Key
		if i == 0 {
			continue
		}
		p := nodes[i-1]
		if p.Event.Topic.MainTopic == topic {
			continue
		}
		if shared := SharedSubTopics(p.Event.Topic.SubTopic, n.Event.Topic.SubTopic); len(shared) > 0 {
			g.Edges = append(g.Edges, Edge{Kind: CrossTopic, Source: p.Key, Target: n.Key, Shared: shared})
		}
	}
	return g
}

// SharedSubTopics returns the intersection of a and b in a's order, without duplicates.
// An empty list never intersects anything.
func SharedSubTopics(a, b []string) []string {
	if len(a) == 0 || len(b) == 0 {
		return nil
	}
	inB := make(map[string]struct{}, len(b))
	for _, s := range b {
		inB[s] = struct{}{}
	}
	var out []string
	seen := make(map[string]struct{})
	for _, s := range a {
		if _, ok := inB[s]; !ok {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

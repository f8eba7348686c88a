// Package subagents assembles the two-tier delegation graph: a triage node
// that hands each conversation to exactly one terminal specialist.
package subagents

import (
	"errors"
	"fmt"

	agent "github.com/Protocol-Lattice/cabinet-agent"
	"github.com/Protocol-Lattice/cabinet-agent/src/cabinet"
	"github.com/Protocol-Lattice/cabinet-agent/src/models"
	"github.com/Protocol-Lattice/cabinet-agent/src/tools"
)

const (
	TriageName      = "triage_agent"
	CabinetName     = "cabinet_agent"
	GeneralInfoName = "general_info_agent"
	WebSearchName   = "web_search"
)

const triageInstructions = `You determine which agent to use based on the user's question.
If the user wants to add liquor into or remove liquor from their collection, hand off to cabinet_agent.
If the user wants general information about liquor or cocktails, hand off to general_info_agent.
Always hand off; never answer the user yourself.`

const cabinetInstructions = `You are an assistant that helps the user add liquor into their collection or remove liquor from their collection.
Use the exact catalog name of the liquor. If a tool reports an invalid name, tell the user and suggest the closest valid names from the list it returns.
Confirm the outcome to the user in plain language.`

const generalInstructions = `You are an assistant that provides general information about liquor and cocktails.
Use web_search when you need current or specific facts.`

const searcherInstructions = `Search the web for the query in the conversation and answer concisely with the facts you found, citing sources when available.`

// Options supply the models and services the nodes need.
type Options struct {
	// Model drives the triage and specialist nodes.
	Model models.Agent
	// SearchModel answers web_search queries. Defaults to Model.
	SearchModel models.Agent
	Cabinet     *cabinet.Service
	// Runner executes web_search sub-runs.
	Runner *agent.Runner
}

// Graph holds the constructed nodes. It is immutable and shared by all requests.
type Graph struct {
	Triage      *agent.Agent
	Cabinet     *agent.Agent
	GeneralInfo *agent.Agent
}

// Build constructs and validates the delegation graph.
func Build(opts Options) (*Graph, error) {
	if opts.Model == nil {
		return nil, errors.New("delegation graph requires a model")
	}
	if opts.Cabinet == nil {
		return nil, errors.New("delegation graph requires a cabinet service")
	}
	searchModel := opts.SearchModel
	if searchModel == nil {
		searchModel = opts.Model
	}

	cabinetNode, err := agent.New(agent.Options{
		Name:               CabinetName,
		HandoffDescription: "Specialist agent for adding liquor into the user's collection or removing liquor from the user's collection",
		Instructions:       cabinetInstructions,
		Model:              opts.Model,
		Tools: []agent.Tool{
			&tools.AddLiquorTool{Service: opts.Cabinet},
			&tools.RemoveLiquorTool{Service: opts.Cabinet},
			tools.ReturnJWTTokenTool{},
		},
	})
	if err != nil {
		return nil, err
	}

	searcher, err := agent.New(agent.Options{
		Name:         "web_searcher",
		Instructions: searcherInstructions,
		Model:        searchModel,
	})
	if err != nil {
		return nil, err
	}

	generalNode, err := agent.New(agent.Options{
		Name:               GeneralInfoName,
		HandoffDescription: "Specialist agent for general information about liquor and cocktails",
		Instructions:       generalInstructions,
		Model:              opts.Model,
		Tools:              []agent.Tool{searcher.AsTool(WebSearchName, "Searches the web and returns a short factual answer.", opts.Runner)},
	})
	if err != nil {
		return nil, err
	}

	triage, err := agent.New(agent.Options{
		Name:         TriageName,
		Instructions: triageInstructions,
		Model:        opts.Model,
		Handoffs:     []*agent.Agent{cabinetNode, generalNode},
	})
	if err != nil {
		return nil, err
	}

	if err := ValidateTwoTier(triage); err != nil {
		return nil, err
	}
	return &Graph{Triage: triage, Cabinet: cabinetNode, GeneralInfo: generalNode}, nil
}

// ValidateTwoTier checks that root hands off only to terminal specialists:
// at least one target, no self-handoff, and no target with handoffs of its own.
func ValidateTwoTier(root *agent.Agent) error {
	if root == nil {
		return errors.New("root node is nil")
	}
	targets := root.Handoffs()
	if len(targets) == 0 {
		return fmt.Errorf("%s has no specialists", root.Name())
	}
	for _, target := range targets {
		if target == root {
			return fmt.Errorf("%s hands off to itself", root.Name())
		}
		if next := target.Handoffs(); len(next) > 0 {
			return fmt.Errorf("specialist %s must be terminal but hands off to %s", target.Name(), next[0].Name())
		}
	}
	return nil
}

// Package catalog exposes the agent/integration/connection domain to its
// consumers (the chat orchestrator, the ingest controller) as narrow
// collaborator interfaces rather than raw repository access.
package catalog

import (
	"context"

	"github.com/google/uuid"
	"onyx.dev/onyx/internal/catalog/model"
	"onyx.dev/onyx/internal/catalog/store"
	"onyx.dev/onyx/internal/onyxerr"
	"onyx.dev/onyx/internal/servicebus"
)

// AgentInfoService projects an Agent onto the AgentInfo snapshot the chat
// orchestrator and AI agent chain consume, satisfying chat.Catalog, and
// owns the Publish/Delete commands that schedule catalog events onto Bus.
type AgentInfoService struct {
	Agents store.AgentRepository
	Bus    *servicebus.Bus
}

// NewAgentInfoService returns an AgentInfoService over agents, publishing
// AgentPublished/AgentDeleted onto bus. bus may be nil in tests that don't
// exercise Publish/Delete.
func NewAgentInfoService(agents store.AgentRepository, bus *servicebus.Bus) *AgentInfoService {
	return &AgentInfoService{Agents: agents, Bus: bus}
}

// GetAgentInfo returns the agent's published AgentInfo, falling back to
// its dev version if it has never been published — a chat channel may be
// pointed at an agent under active development before its first publish.
func (s *AgentInfoService) GetAgentInfo(ctx context.Context, agentID uuid.UUID) (*model.AgentInfo, error) {
	agent, err := s.Agents.Get(ctx, agentID)
	if err != nil {
		return nil, err
	}
	if agent == nil || agent.IsDeleted {
		return nil, onyxerr.NotFound("agent", agentID.String())
	}

	info := agent.Info(true)
	if info == nil {
		info = agent.Info(false)
	}
	if info == nil {
		return nil, onyxerr.NotFound("agent_info", agentID.String())
	}
	return info, nil
}

// Publish promotes agentID's dev version to its published version and
// opens a fresh dev version cloned from it, then schedules AgentPublished
// so the search index picks up the new live document.
func (s *AgentInfoService) Publish(ctx context.Context, agentID uuid.UUID) error {
	agent, err := s.Agents.Get(ctx, agentID)
	if err != nil {
		return err
	}
	if agent == nil {
		return onyxerr.NotFound("agent", agentID.String())
	}
	if agent.DevVersion == nil {
		return onyxerr.New(onyxerr.KindInvalidArgument, "agent has no dev version to publish")
	}

	published := agent.DevVersion
	published.IsPublished = true
	agent.PublishedVersion = published
	agent.DevVersion = published.Clone()

	if err := s.Agents.Save(ctx, agent); err != nil {
		return err
	}

	if s.Bus != nil {
		collector := servicebus.NewEventCollector()
		collector.Publish(AgentPublished{Document: AgentDocument{
			AgentID:              agent.ID,
			Name:                 published.Name,
			Description:          published.Description,
			ConversationStarters: published.Starters,
			Avatar:               published.Avatar,
			Subdomain:            published.Subdomain,
		}})
		s.Bus.Commit(ctx, collector)
	}
	return nil
}

// Delete marks agentID deleted and schedules AgentDeleted so the search
// index drops it.
func (s *AgentInfoService) Delete(ctx context.Context, agentID uuid.UUID) error {
	agent, err := s.Agents.Get(ctx, agentID)
	if err != nil {
		return err
	}
	if agent == nil {
		return onyxerr.NotFound("agent", agentID.String())
	}

	agent.IsDeleted = true
	if err := s.Agents.Save(ctx, agent); err != nil {
		return err
	}

	if s.Bus != nil {
		collector := servicebus.NewEventCollector()
		collector.Publish(AgentDeleted{AgentID: agent.ID})
		s.Bus.Commit(ctx, collector)
	}
	return nil
}

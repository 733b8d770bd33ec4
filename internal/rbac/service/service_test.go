package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"veritas/internal/rbac"
	dErrors "veritas/pkg/domain-errors"
	"veritas/pkg/platform/audit"
	auditmemory "veritas/pkg/platform/audit/store/memory"

	"veritas/internal/rbac/service"
)

type RBACServiceSuite struct {
	suite.Suite
	events *auditmemory.InMemoryStore
	svc    *service.Service
	ctx    context.Context
}

func (s *RBACServiceSuite) SetupTest() {
	s.events = auditmemory.NewInMemoryStore()
	publisher := audit.NewPublisher(s.events)
	s.svc = service.New(service.WithAuditPublisher(publisher))
	s.ctx = context.Background()
}

func TestRBACServiceSuite(t *testing.T) {
	suite.Run(t, new(RBACServiceSuite))
}

func (s *RBACServiceSuite) TestValidateGraph() {
	s.Run("accepts a hierarchy", func() {
		verdict, err := s.svc.ValidateGraph(s.ctx, "org-1", []rbac.Edge{
			{Parent: "admin", Child: "manager"},
			{Parent: "manager", Child: "analyst"},
		})
		s.Require().NoError(err)
		s.True(verdict.Valid)
		s.Nil(verdict.Cycle)
	})

	s.Run("rejects a cycle and reports the path", func() {
		verdict, err := s.svc.ValidateGraph(s.ctx, "org-1", []rbac.Edge{
			{Parent: "a", Child: "b"},
			{Parent: "b", Child: "c"},
			{Parent: "c", Child: "a"},
		})
		s.Require().NoError(err)
		s.False(verdict.Valid)
		s.Equal([]string{"a", "b", "c", "a"}, verdict.Cycle)
	})

	s.Run("cycle leaves a security event", func() {
		_, err := s.svc.ValidateGraph(s.ctx, "org-9", []rbac.Edge{
			{Parent: "lead", Child: "lead"},
		})
		s.Require().NoError(err)

		events, err := s.events.ListByOrg(s.ctx, "org-9")
		s.Require().NoError(err)
		s.Require().Len(events, 1)
		s.Equal(string(audit.EventRoleGraphRejected), events[0].Action)
		s.Equal(audit.CategorySecurity, events[0].Category)
		s.Contains(events[0].Reason, "lead -> lead")
	})

	s.Run("rejects missing org", func() {
		_, err := s.svc.ValidateGraph(s.ctx, "", nil)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("rejects edges with blank roles", func() {
		_, err := s.svc.ValidateGraph(s.ctx, "org-1", []rbac.Edge{{Parent: "admin"}})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

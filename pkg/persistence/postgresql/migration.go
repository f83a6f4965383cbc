package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE workflow_definitions (
				id UUID PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				entity_type VARCHAR(50) NOT NULL,
				department VARCHAR(255) NOT NULL DEFAULT '',
				position_level VARCHAR(255) NOT NULL DEFAULT '',
				salary_min NUMERIC(12,2) NOT NULL DEFAULT 0,
				salary_max NUMERIC(12,2) NOT NULL DEFAULT 0,
				steps JSONB NOT NULL,
				sla_hours DOUBLE PRECISION NOT NULL,
				escalation_hours DOUBLE PRECISION NOT NULL,
				is_active BOOLEAN NOT NULL DEFAULT TRUE,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_workflow_definitions_entity_type ON workflow_definitions(entity_type);
			CREATE INDEX idx_workflow_definitions_is_active ON workflow_definitions(is_active);

			CREATE TABLE approval_instances (
				id UUID PRIMARY KEY,
				workflow_id UUID NOT NULL REFERENCES workflow_definitions(id),
				entity_type VARCHAR(50) NOT NULL,
				entity_id VARCHAR(255) NOT NULL,
				total_steps INT NOT NULL,
				current_step INT NOT NULL DEFAULT 0,
				overall_status VARCHAR(20) NOT NULL CHECK (overall_status IN ('pending', 'approved', 'rejected')),
				initiated_by VARCHAR(255) NOT NULL,
				context JSONB NOT NULL DEFAULT '{}',
				initiated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				completed_at TIMESTAMP WITH TIME ZONE
			);

			-- One live approval per business entity.
			CREATE UNIQUE INDEX idx_approval_instances_live_entity
				ON approval_instances(entity_type, entity_id)
				WHERE overall_status = 'pending';
			CREATE INDEX idx_approval_instances_initiated_at ON approval_instances(initiated_at);

			CREATE TABLE approval_steps (
				id UUID PRIMARY KEY,
				instance_id UUID NOT NULL REFERENCES approval_instances(id) ON DELETE CASCADE,
				step_number INT NOT NULL,
				name VARCHAR(255) NOT NULL,
				required_role VARCHAR(255) NOT NULL,
				assigned_to VARCHAR(255) NOT NULL DEFAULT '',
				delegated_to VARCHAR(255) NOT NULL DEFAULT '',
				backup_approver_id VARCHAR(255) NOT NULL DEFAULT '',
				status VARCHAR(20) NOT NULL CHECK (status IN ('pending', 'approved', 'rejected', 'escalated')),
				due_date TIMESTAMP WITH TIME ZONE NOT NULL,
				escalation_date TIMESTAMP WITH TIME ZONE NOT NULL,
				is_committee_vote BOOLEAN NOT NULL DEFAULT FALSE,
				minimum_votes INT NOT NULL DEFAULT 0,
				decision_date TIMESTAMP WITH TIME ZONE,
				comments TEXT NOT NULL DEFAULT '',
				escalated_to VARCHAR(255) NOT NULL DEFAULT '',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				UNIQUE (instance_id, step_number)
			);

			CREATE INDEX idx_approval_steps_instance_id ON approval_steps(instance_id);
			CREATE INDEX idx_approval_steps_status ON approval_steps(status);
			CREATE INDEX idx_approval_steps_assigned_to ON approval_steps(assigned_to);

			CREATE TABLE sla_trackers (
				id UUID PRIMARY KEY,
				step_id UUID NOT NULL UNIQUE REFERENCES approval_steps(id) ON DELETE CASCADE,
				sla_target_hours DOUBLE PRECISION NOT NULL,
				started_at TIMESTAMP WITH TIME ZONE NOT NULL,
				completed_at TIMESTAMP WITH TIME ZONE,
				sla_met BOOLEAN,
				hours_taken DOUBLE PRECISION,
				escalation_triggered_at TIMESTAMP WITH TIME ZONE,
				escalated_to VARCHAR(255) NOT NULL DEFAULT ''
			);

			CREATE INDEX idx_sla_trackers_escalation ON sla_trackers(escalation_triggered_at) WHERE completed_at IS NULL;

			CREATE TABLE committee_votes (
				id UUID PRIMARY KEY,
				step_id UUID NOT NULL REFERENCES approval_steps(id) ON DELETE CASCADE,
				member_id VARCHAR(255) NOT NULL,
				weight DOUBLE PRECISION NOT NULL DEFAULT 1.0,
				vote VARCHAR(20) NOT NULL CHECK (vote IN ('pending', 'approve', 'reject')),
				comments TEXT NOT NULL DEFAULT '',
				voted_at TIMESTAMP WITH TIME ZONE,
				UNIQUE (step_id, member_id)
			);

			CREATE TABLE delegations (
				id UUID PRIMARY KEY,
				delegator_id VARCHAR(255) NOT NULL,
				delegate_id VARCHAR(255) NOT NULL,
				delegation_scope VARCHAR(20) NOT NULL CHECK (delegation_scope IN ('all', 'department', 'salary_range')),
				department VARCHAR(255) NOT NULL DEFAULT '',
				salary_min NUMERIC(12,2) NOT NULL DEFAULT 0,
				salary_max NUMERIC(12,2) NOT NULL DEFAULT 0,
				start_date TIMESTAMP WITH TIME ZONE NOT NULL,
				end_date TIMESTAMP WITH TIME ZONE,
				is_active BOOLEAN NOT NULL DEFAULT TRUE,
				reason TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_delegations_delegator ON delegations(delegator_id);
			CREATE INDEX idx_delegations_is_active ON delegations(is_active);
		`,
	}
}

package provisioning

// DefaultPhases returns the install state machine in execution order.
func DefaultPhases() []Phase {
	return []Phase{
		&EnvironmentPhase{},
		&PrivilegePhase{},
		&ToolsPhase{},
		&RuntimePhase{},
		&GlobalDepsPhase{},
		&IdentityPhase{},
		&ReleasePhase{},
		&CorePhase{},
		&ServerPhase{},
		&SupervisorPhase{},
	}
}

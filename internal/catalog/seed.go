package catalog

// Signal source names used by the built-in catalog. Upstream collaborators
// report against these when documents are verified or checks complete.
const (
	SourceIntake    = "intake"
	SourceDocuments = "documents"
	SourceCredit    = "credit"
	SourceValuation = "valuation"
	SourceUnderwrit = "underwriting"
	SourceSigning   = "signing"
)

// BuiltIn returns the default mortgage processing catalog.
func BuiltIn() *Catalog {
	c, err := New(builtInStages())
	if err != nil {
		// The built-in definition is static; a construction failure is a bug.
		panic(err)
	}
	return c
}

func builtInStages() []Stage {
	return []Stage{
		{
			ID:          "initial_contact",
			Title:       "Initial Contact",
			Description: "First contact and basic information collection",
			SubTasks: []SubTask{
				{ID: "basic_info", Title: "Collect basic information", Required: true, Sources: []string{SourceIntake}},
				{ID: "loan_requirements", Title: "Understand loan requirements", Required: true, Sources: []string{SourceIntake}},
			},
		},
		{
			ID:          "identity_verification",
			Title:       "Identity Verification",
			Description: "Verify identity and perform credit checks",
			SubTasks: []SubTask{
				{ID: "id_docs", Title: "Verify identification documents", Required: true, Sources: []string{SourceDocuments}},
				{ID: "credit_check", Title: "Perform credit assessment", Required: true, Sources: []string{SourceCredit}},
			},
		},
		{
			ID:          "document_collection",
			Title:       "Document Collection",
			Description: "Gather and verify required documentation",
			SubTasks: []SubTask{
				{ID: "income_docs", Title: "Income verification documents", Required: true, Sources: []string{SourceDocuments}},
				{ID: "bank_statements", Title: "Bank statements", Required: true, Sources: []string{SourceDocuments}},
				{ID: "tax_returns", Title: "Tax returns", Required: false, Sources: []string{SourceDocuments}},
			},
		},
		{
			ID:          "assessment",
			Title:       "Loan Assessment",
			Description: "Evaluate loan application and financial position",
			SubTasks: []SubTask{
				{ID: "income_assessment", Title: "Income assessment", Required: true, Sources: []string{SourceUnderwrit}},
				{ID: "expense_analysis", Title: "Expense analysis", Required: true, Sources: []string{SourceUnderwrit}},
				{ID: "serviceability", Title: "Serviceability calculation", Required: true, Sources: []string{SourceUnderwrit}},
			},
		},
		{
			ID:          "property_valuation",
			Title:       "Property Valuation",
			Description: "Property assessment and valuation",
			SubTasks: []SubTask{
				{ID: "property_details", Title: "Property details collection", Required: true, Sources: []string{SourceValuation}},
				{ID: "valuation_report", Title: "Valuation report", Required: true, Sources: []string{SourceValuation}},
			},
		},
		{
			ID:          "final_approval",
			Title:       "Final Approval",
			Description: "Final review and loan approval",
			SubTasks: []SubTask{
				{ID: "final_review", Title: "Final application review", Required: true, Sources: []string{SourceUnderwrit}},
				{ID: "approval_decision", Title: "Approval decision", Required: true, Sources: []string{SourceUnderwrit}},
			},
		},
		{
			ID:          "documentation",
			Title:       "Documentation",
			Description: "Prepare and sign loan documentation",
			SubTasks: []SubTask{
				{ID: "prepare_docs", Title: "Prepare loan documents", Required: true, Sources: []string{SourceSigning}},
				{ID: "client_signing", Title: "Client signing", Required: true, Sources: []string{SourceSigning}},
			},
		},
	}
}

package email

const subjectReconciliationSummaryFmt = "Reconciliation run (%s): %d new tasks"

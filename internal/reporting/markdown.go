package reporting

import (
	"fmt"
	"strings"
	"time"

	"token-risk-lab/internal/training"
)

// RenderMarkdown renders the training report as a Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Rug-Pull Model Training Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	if r.ModelVersion > 0 {
		sb.WriteString(fmt.Sprintf("Published model version: %d\n\n", r.ModelVersion))
	}

	// Dataset summary
	sb.WriteString("## Dataset\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Total Samples | %d |\n", r.Samples))
	sb.WriteString(fmt.Sprintf("| Rug Pulls | %d |\n", r.Positives))
	sb.WriteString(fmt.Sprintf("| Legitimate | %d |\n", r.Negatives))
	sb.WriteString("\n")

	// Model performance
	sb.WriteString("## Performance\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Test AUC-ROC | %.4f |\n", r.AUCROC))
	sb.WriteString(fmt.Sprintf("| CV AUC-ROC | %.4f (+/- %.4f) |\n", r.CVMean, 2*r.CVStd))
	sb.WriteString(fmt.Sprintf("| Precision @ 90%% Recall | %.4f |\n", r.PrecisionAt90Recall))
	sb.WriteString("\n")

	switch r.Gate {
	case training.GateWarn:
		sb.WriteString(fmt.Sprintf("**WARNING:** AUC-ROC is below the recommended threshold of %.2f.\n\n", training.GateWarnBelowAUC))
	case training.GateConfirm:
		sb.WriteString("**Model meets performance requirements.**\n\n")
	}

	// Confusion matrix at the export threshold
	sb.WriteString("## Confusion Matrix\n\n")
	sb.WriteString("| | Predicted Legitimate | Predicted Rug Pull |\n")
	sb.WriteString("|---|---|---|\n")
	sb.WriteString(fmt.Sprintf("| Actual Legitimate | %d | %d |\n", r.Confusion.TrueNegatives, r.Confusion.FalsePositives))
	sb.WriteString(fmt.Sprintf("| Actual Rug Pull | %d | %d |\n", r.Confusion.FalseNegatives, r.Confusion.TruePositives))
	sb.WriteString("\n")

	// Classification report
	sb.WriteString("## Classification Report\n\n")
	sb.WriteString("| Class | Precision | Recall | F1 | Support |\n")
	sb.WriteString("|-------|-----------|--------|----|---------|\n")
	names := [2]string{"Legitimate", "Rug Pull"}
	for i, rep := range r.ClassReports {
		sb.WriteString(fmt.Sprintf("| %s | %.4f | %.4f | %.4f | %d |\n",
			names[i], rep.Precision, rep.Recall, rep.F1, rep.Support))
	}
	sb.WriteString("\n")

	// Feature importance
	sb.WriteString("## Feature Importance\n\n")
	if len(r.TopFeatures) > 0 {
		sb.WriteString("| Rank | Feature | Importance |\n")
		sb.WriteString("|------|---------|------------|\n")
		for i, fw := range r.TopFeatures {
			sb.WriteString(fmt.Sprintf("| %d | %s | %.6f |\n", i+1, fw.Name, fw.Weight))
		}
	} else {
		sb.WriteString("No feature importance available.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}

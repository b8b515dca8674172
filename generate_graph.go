//go:build ignore
// +build ignore

package main

import (
	"fmt"
	"os"

	"github.com/loanmate/loanmate-bot/internal/bot"
	"github.com/loanmate/loanmate-bot/internal/creditreport"
)

func main() {
	report := &creditreport.Response{
		Success: true,
		CreditStrength: creditreport.CreditStrength{
			Score:  72,
			Rating: "Good",
		},
		DebtAnalysis: creditreport.DebtAnalysis{
			DTIRatio:        24.0,
			DTIStatus:       "Healthy",
			TotalCurrentEMI: 12000,
			SafeEMILimit:    20000,
		},
	}

	chartData, err := bot.GenerateEMIChart(report)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile("graph.png", chartData, 0600); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("✓ Created graph.png - Example EMI budget chart")
}

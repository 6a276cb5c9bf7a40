package mcpserver

import "github.com/mark3labs/mcp-go/mcp"

// Tool definitions for the fraud detection MCP server.
// Descriptions are what the LLM reads to decide which tool to use.

var ToolVerifyCard = mcp.NewTool("verify_card",
	mcp.WithDescription(
		"Score a card transaction for fraud risk. "+
			"Returns a 0-100 risk score, the contributing risk factors, and a "+
			"recommendation (APPROVE, FLAG, MANUAL_REVIEW, or DECLINE)."),
	mcp.WithString("card_number",
		mcp.Required(),
		mcp.Description("Card number to verify (spaces and dashes are tolerated)")),
	mcp.WithNumber("amount",
		mcp.Required(),
		mcp.Description("Transaction amount in USD")),
	mcp.WithString("merchant",
		mcp.Required(),
		mcp.Description("Merchant name as it appears on the transaction")),
	mcp.WithString("country",
		mcp.Description("Transaction country (e.g. 'United States'). Omit for an unknown location.")),
	mcp.WithString("city",
		mcp.Description("Transaction city")),
	mcp.WithString("timestamp",
		mcp.Description("Transaction time in RFC 3339 (e.g. '2026-08-28T14:00:00Z'). Defaults to now.")),
	mcp.WithString("user_agent",
		mcp.Description("User agent string of the originating device, if known")),
)

var ToolGetCardPattern = mcp.NewTool("get_card_pattern",
	mcp.WithDescription(
		"Get the spending pattern on file for a card: average transaction amount, "+
			"usual countries and merchant categories, and usage history. "+
			"Useful for explaining why a transaction deviates from normal behavior."),
	mcp.WithString("card_number",
		mcp.Required(),
		mcp.Description("Card number to look up")),
)

var ToolListTransactions = mcp.NewTool("list_transactions",
	mcp.WithDescription(
		"Browse recent scored transactions in the monitoring feed. "+
			"Supports filtering by outcome, minimum risk score, and free-text search "+
			"over merchant names and transaction IDs."),
	mcp.WithString("status",
		mcp.Description("Filter by outcome"),
		mcp.Enum("Approved", "Declined", "Flagged", "Pending")),
	mcp.WithString("search",
		mcp.Description("Free-text search over merchant, card number, and transaction ID")),
	mcp.WithNumber("min_risk_score",
		mcp.Description("Only return transactions scoring at or above this value (0-100)")),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of transactions to return (default 20)")),
)

var ToolGetTransaction = mcp.NewTool("get_transaction",
	mcp.WithDescription(
		"Fetch a single transaction by ID, including its risk score, outcome, "+
			"and the risk factors that contributed to the score."),
	mcp.WithString("transaction_id",
		mcp.Required(),
		mcp.Description("Transaction ID (e.g. 'txn_a1b2c3')")),
)

var ToolGetAnalytics = mcp.NewTool("get_analytics",
	mcp.WithDescription(
		"Get aggregate fraud analytics: transaction volume, approval/decline/flag "+
			"counts, average risk score, and the distribution of transactions across "+
			"risk tiers."),
)

var ToolGetFraudPatterns = mcp.NewTool("get_fraud_patterns",
	mcp.WithDescription(
		"Get the currently tracked fraud patterns (velocity attacks, geographic "+
			"anomalies, amount clustering, device spoofing) with detection counts, "+
			"trends, and severity."),
)

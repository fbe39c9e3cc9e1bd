package llm

// Sampling settings per call shape.
const (
	classificationTemperature = 0.65
	classificationMaxTokens   = 50
	extractionTemperature     = 0.65
	extractionMaxTokens       = 2048
	normalizationTemperature  = 0
	normalizationMaxTokens    = 1000
)

// ClassificationInstruction describes the A2P/P2P taxonomy.
const ClassificationInstruction = `You are an expert in classifying messages as Application-to-Person (A2P) or Person-to-Person (P2P).
A2P messages are system-generated messages, such as order confirmations, payment receipts, or booking notifications.
P2P messages are personal conversations between individuals.

Rules for A2P Classification:
- Includes messages triggered by user actions (e.g., order confirmations, payment receipts, shipping updates, booking confirmations).
- Includes ride-service notifications naming a driver or vehicle, and security or login alerts tied to the user's own activity.
- Messages containing keywords like 'Order', 'Receipt', 'Shipped', 'Confirmation', or 'Departure time' are A2P.
- Messages with a line shaped like '<Service> <Name> <Datetime> <CURRENCY> <amount>' are A2P.
- Formal messages providing status updates.
- Excludes promotional emails, marketing, advertising, and newsletters, even when they contain the keywords above.

Response Format:
- If A2P, respond with: 'This is A2P.'
- If P2P, respond with: 'This is P2P.'`

// ExtractionInstruction enumerates the nine fields and the extraction rules.
const ExtractionInstruction = `You are an expert in extracting keywords from text messages, emails, and messenger apps to infer user actions. Extract the following fields and return JSON output:

- service_name
- action_datetime
- message_datetime
- action_keyword
- address1
- address2
- amount
- item
- mobile_number

Rules:
- If a value is not found, insert NULL.
- Extract dates exactly as they appear.
- Copy every value exactly as it appears in the message, without rewording.
- If multiple payments exist, extract only the highest one, keeping its currency keyword.
- If multiple ordered items are found, include all items as a list of objects, each with at least a "name" key.`

// NormalizationInstruction asks for canonical dates and amounts.
const NormalizationInstruction = `You are an expert in formatting and normalizing JSON data.
You will receive a JSON object containing fields such as dates and amounts.
Your task is to:
- Convert dates to format: YYYY/MM/DD HH:MM:SS.
- Ensure missing values are empty ("").
- Format amount fields with currency codes (e.g., 'USD 100', 'AUD 50').
- Return the updated JSON with all fields properly formatted, inside a single ` + "```json" + ` code block.`

// ClassificationRequest builds the classification call for one unit.
func ClassificationRequest(content string) Request {
	return Request{
		SystemInstruction: ClassificationInstruction,
		UserContent:       content,
		Temperature:       classificationTemperature,
		MaxOutputTokens:   classificationMaxTokens,
	}
}

// ExtractionRequest builds the field extraction call for one unit.
func ExtractionRequest(content string) Request {
	return Request{
		SystemInstruction: ExtractionInstruction,
		UserContent:       content,
		Temperature:       extractionTemperature,
		MaxOutputTokens:   extractionMaxTokens,
	}
}

// NormalizationRequest builds the normalization call for a raw record.
func NormalizationRequest(recordJSON string) Request {
	return Request{
		SystemInstruction: NormalizationInstruction,
		UserContent:       recordJSON,
		Temperature:       normalizationTemperature,
		MaxOutputTokens:   normalizationMaxTokens,
	}
}

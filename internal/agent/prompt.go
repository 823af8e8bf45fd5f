package agent

const extractSystemText = `You are the negotiation assistant for an agricultural mandi. Vendors describe trades in conversation; your job is to extract structured trade details from what they actually said. Extract only what is stated. Never invent or guess values. Prices are in rupees.`

const extractPrompt = `Known trade details so far:
%s

Conversation so far:
%s

Latest vendor utterance:
%s

Extract any trade fields stated in the latest utterance. Return a valid JSON object and nothing else:
{"product_name": <string or null>, "quantity": <number or null>, "unit": <string or null>, "unit_price": <number or null>, "confidence": <0.0-1.0>}

Rules:
- quantity and unit_price are plain numbers, no currency symbols or thousands separators
- unit is the vendor's trade unit (kg, quintal, ton, bag, dozen)
- confidence reflects how certain you are about the fields you filled
- a field the vendor has not stated is null`

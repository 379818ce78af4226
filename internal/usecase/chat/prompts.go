package chat

const identifyCommodityPrompt = `Identify the crop commodity the question below is about.
Answer with the commodity name only (for example: Corn, Soybeans, Wheat).
If no commodity is mentioned, answer None.

Question: %s`

const identifyStatePrompt = `Identify the U.S. state the question below is about.
Answer with the full state name only (for example: Iowa).
If no state is mentioned, answer None.

Question: %s`

const identifyCountyPrompt = `Identify the U.S. county the question below is about.
Answer with the county name only, without the word "County" (for example: Polk).
If no county is mentioned, answer None.

Question: %s`

const identifyDocCategoryPrompt = `Classify which crop insurance document type would answer the question below.
Answer with one code only:
SP for Special Provisions (county-specific dates, rates and statements),
CIH for the Crop Insurance Handbook,
BP for Basic Provisions,
CP for Crop Provisions.
If no document type is implied, answer None.

Question: %s`

const functionsSystemPrompt = `You are an assistant for crop insurance agents and farmers.
When a question needs policy documents, call find_docs with the user's question as query and
any state, county, commodity or document category (SP, CIH, BP, CP) the conversation mentions.
Leave an argument out when it was not mentioned. Answer only from the returned documents.`

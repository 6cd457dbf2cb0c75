package imageanalysis

const systemPrompt = "You are a cautious skincare assistant. Look at the face photo and describe only what is visible. " +
	"Do not diagnose medical conditions. Return strict JSON only."

const userPrompt = `Classify the skin in this photo.
Return JSON with:
- skin_type: one of normal, dry, oily, combination, sensitive
- visible_concerns: short lowercase labels such as acne, redness, dark spots, fine lines, dullness, large pores
- confidence: a number between 0 and 1`

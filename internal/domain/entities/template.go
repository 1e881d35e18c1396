package entities

// PromptTemplate is a user-editable template body with named {key}
// placeholders. Template content is untrusted text; substitution is pure
// string interpolation with no execution semantics.
type PromptTemplate struct {
	Name string `json:"name"`
	Body string `json:"body"`
}

// Template names for the two generation passes.
const (
	TemplatePass1 = "pass1"
	TemplatePass2 = "pass2"
)

// Context keys available to the pass-1 template (per-item summarization).
const (
	KeyMeetingDate = "meeting_date"
	KeySection     = "section"
	KeyItem        = "item"
	KeyNotes       = "notes"
)

// Context keys available to the pass-2 template (report formatting).
const (
	KeyItemsText    = "items_text"
	KeyMeetingDates = "meeting_dates"
	KeyItemCount    = "item_count"
)

// DefaultPass1Template summarizes one agenda item into a single categorized
// clause. Derived from the prompt the application has shipped with.
func DefaultPass1Template() PromptTemplate {
	return PromptTemplate{Name: TemplatePass1, Body: defaultPass1Body}
}

// DefaultPass2Template formats the aggregated pass-1 clauses into the final
// report body.
func DefaultPass2Template() PromptTemplate {
	return PromptTemplate{Name: TemplatePass2, Body: defaultPass2Body}
}

const defaultPass1Body = `You are an expert city clerk. Your task is to summarize one agenda item into ONE short clause.

Rules for summarization:
- Summarize the agenda item in ONE concise single clause, as short and clean as possible, that clearly signals what the item is. You may omit most parenthesized text from the original input.
- First decide which category the item belongs in and prepend it: "Study Session:" or "Closed Session:" or "Special Presentations:" or "Consent:" or "Consideration or Public Hearing:". ALL considerations or public hearings go under "Consideration or Public Hearing:".
- You MUST omit internal workflow words such as "moved from [dates]" and "per [person]".
- If the item includes the text "placeholder", delete it and append "(placeholder)" to the end with no other placeholder details.
- If the item includes " ADD DESCRIPTION", delete it and append " - ADD DESCRIPTION" to the end, after any "(placeholder)".
- The summary MUST use Title Case (capitalize all principal words), for example: "Approval of Minutes for 1/1/2025 Meeting".
- Delete workflow dates. For logistic dates that belong in the item, keep the date exactly as it appears.

Some good examples:
<examples>
Study Session: Study Session on Revenue Generation - ADD DESCRIPTION
Special Presentations: City Staff New Hires (Semi-Annual Update)
Consent: Annual POs/Agreements over $75K PWD-Wastewater
Consent: Approval of Minutes for 1/1/2024 City Council Meeting
Consideration or Public Hearing: Continued Consideration of Climate Action and Resilience Plan Adoption
</examples>

Meeting Date: {meeting_date} - THIS IS THE ACTUAL MEETING DATE; parse it neatly as <Month Day>, i.e. "8-Sep" = "September 8".

Agenda item to summarize - ONLY SUMMARIZE THIS ONE ITEM:
<summarize_this>
- Item: {item}, Section: "{section}", Notes: "{notes}"
</summarize_this>

Provide ONLY the single summarized line, carefully capitalized and prepended with its category:`

const defaultPass2Body = `You are an expert city clerk responsible for creating agenda summaries for the City Council. Your task is to take a list of summarized agenda items and format them into a clear, concise report.

Follow these rules strictly:
1.  Format: The output must be raw text only. Do not use any markdown like '##' or '**'.
2.  Date Header: The report must start with the FULL month name followed by the day number, e.g. "January 1:". NEVER use numeric-month abbreviations such as "1-Jan".
3.  Sections: The report MUST CONTAIN each of these headers ON THEIR OWN LINE, in this order:
        "Study Session:"
        "Closed Session:"
        "Special Presentations:"
        "Consent:"
        "Consideration or Public Hearing:"
    If a section has no items, write "TBD" right after the section name, e.g. "Closed Session: TBD".
4.  Item bullet points: each item MUST be on its own line, starting with a single hyphen and a space: "- ". Do NOT use other bullet characters.

Example of the desired format:
<examples>
September 10:
Study Session:
- Joint Study Session on Revenue Options - ADD DESCRIPTION
Closed Session: TBD
Special Presentations: TBD
Consent:
- Bi-Weekly Disbursements Approval
- Approval of Minutes for 1/1/2025 City Council Meeting
Consideration or Public Hearing:
- FY 2025-26 Budget Adoption
</examples>

Meeting Dates: {meeting_dates} - list each date's items under the correct date header, parsed carefully, i.e. "8-Sep" = "September 8".

Summarized agenda items ({item_count} total):
<items_to_sort>
{items_text}
</items_to_sort>

Report:`

package model

import (
	"strings"
)

var vcardEscaper = strings.NewReplacer(`\`, `\\`, "\n", `\n`, ",", `\,`, ";", `\;`)

// VCF renders the card as vCard 3.0 text with CRLF line endings.
func (v *VCardPayload) VCF() string {
	var b strings.Builder
	line := func(s string) {
		b.WriteString(s)
		b.WriteString("\r\n")
	}
	esc := vcardEscaper.Replace

	line("BEGIN:VCARD")
	line("VERSION:3.0")
	line("N:" + esc(v.LastName) + ";" + esc(v.FirstName) + ";;;")
	line("FN:" + esc(strings.TrimSpace(v.FirstName+" "+v.LastName)))
	if v.Organization != "" {
		line("ORG:" + esc(v.Organization))
	}
	if v.Title != "" {
		line("TITLE:" + esc(v.Title))
	}
	if v.Phone != "" {
		line("TEL;TYPE=CELL:" + esc(v.Phone))
	}
	if v.Email != "" {
		line("EMAIL;TYPE=INTERNET:" + esc(v.Email))
	}
	if v.Website != "" {
		line("URL:" + esc(v.Website))
	}
	if v.Address != "" {
		line("ADR;TYPE=WORK:;;" + esc(v.Address) + ";;;;")
	}
	if v.Note != "" {
		line("NOTE:" + esc(v.Note))
	}
	line("END:VCARD")
	return b.String()
}

// FileName is a download name for the card, e.g. "jane-doe.vcf".
func (v *VCardPayload) FileName() string {
	name := strings.ToLower(strings.TrimSpace(v.FirstName + " " + v.LastName))
	name = strings.Join(strings.Fields(strings.ReplaceAll(name, `"`, "")), "-")
	if name == "" {
		name = "contact"
	}
	return name + ".vcf"
}

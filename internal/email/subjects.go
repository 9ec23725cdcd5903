package email

import "fmt"

const subjectQuotationFmt = "Cotización %s para %s"

func quotationSubject(q QuotationEmail) string {
	return fmt.Sprintf(subjectQuotationFmt, q.Reference, q.ClientName)
}

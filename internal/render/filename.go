package render

import "strings"

var fileNameReplacer = strings.NewReplacer(`"`, "", `\`, "", "\r", "", "\n", "")

// FileName is the download name of the document for regNo. Characters that
// would break a quoted Content-Disposition filename are dropped.
func FileName(regNo string) string {
	return "BEU_Result_" + fileNameReplacer.Replace(regNo) + ".pdf"
}

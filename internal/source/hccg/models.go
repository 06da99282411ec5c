package hccg

import "encoding/json"

// Record is one activity row from the Hsinchu open-data API. The response
// is a bare top-level array.
type Record struct {
	Serno            json.Number `json:"serno"`
	Subject          string      `json:"subject"`
	DetailContent    string      `json:"detailcontent"`
	ActivitySDate    string      `json:"activitysdate"`
	ActivityEDate    string      `json:"activityedate"`
	ActivityPlace    string      `json:"activityplace"`
	Voice            string      `json:"voice"`
	HostUnit         string      `json:"hostunit"`
	SubjectClass     string      `json:"subjectclass"`
	ResourceDataList []Resource  `json:"resourcedatalist"`
}

type Resource struct {
	RelateName string `json:"relatename"`
	RelateURL  string `json:"relateurl"`
}

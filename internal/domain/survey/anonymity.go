package survey

// Anonymous respondents are stored as regular rows carrying these sentinels.
// Anonymity is detected later by the name alone.
const (
	AnonymousName     = "Anónimo"
	AnonymousEmail    = "anonimo@encuesta.local"
	GenderUndisclosed = "Prefiero no decir"
)

type Submission struct {
	Anonymous bool
	Name      string
	Email     string
	Age       int
	Gender    string
	Selection Selection
}

type RespondentProfile struct {
	Name   string
	Email  string
	Age    int
	Gender string
}

func MaterializeRespondent(sub Submission) RespondentProfile {
	if sub.Anonymous {
		return RespondentProfile{
			Name:   AnonymousName,
			Email:  AnonymousEmail,
			Age:    0,
			Gender: GenderUndisclosed,
		}
	}
	return RespondentProfile{
		Name:   sub.Name,
		Email:  sub.Email,
		Age:    sub.Age,
		Gender: sub.Gender,
	}
}

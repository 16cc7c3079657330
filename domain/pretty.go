package domain

func Pluralize(value int, word string) string {
	if value == 1 {
		return word
	}
	return word + "s"
}

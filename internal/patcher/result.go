package patcher

// successMessage asks the user to refresh the icon cache, which this tool cannot do.
const successMessage = "Operation successful. Please rebuild the icon cache."

// Result is the outcome of an Apply or Restore as presented to the user.
type Result struct {
	Success bool
	Message string
}

// ResultOf turns the error returned by Apply or Restore into a Result.
func ResultOf(err error) Result {
	if err != nil {
		return Result{Success: false, Message: err.Error()}
	}

	return Result{Success: true, Message: successMessage}
}

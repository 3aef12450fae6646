package premium

import (
	"bitwise74/expense-api/app/respond"
	"bitwise74/expense-api/internal"
	"net/http"

	"github.com/gin-gonic/gin"
)

func PremiumLeaderboard(c *gin.Context, d *internal.Deps) {
	entries, err := d.Expenses.Leaderboard(c.Request.Context())
	if err != nil {
		respond.Error(c, err)
		return
	}

	respond.OK(c, http.StatusOK, gin.H{"leaderboard": entries})
}

// PremiumReport exports the caller's expenses and returns a temporary download link
func PremiumReport(c *gin.Context, d *internal.Deps) {
	link, err := d.Reports.Export(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		respond.Error(c, err)
		return
	}

	respond.OK(c, http.StatusCreated, gin.H{"report": link})
}

func PremiumReports(c *gin.Context, d *internal.Deps) {
	links, err := d.Reports.List(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		respond.Error(c, err)
		return
	}

	respond.OK(c, http.StatusOK, gin.H{"reports": links})
}
